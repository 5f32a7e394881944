// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45))
	assert.Equal(t, "1:00", FormatDuration(60))
	assert.Equal(t, "12:05", FormatDuration(725))
	assert.Equal(t, "1:00:00", FormatDuration(3600))
	assert.Equal(t, "2:05:09", FormatDuration(7509))
	assert.Equal(t, "0s", FormatDuration(-5))
}
