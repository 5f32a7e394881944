// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"

	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

func Validate(schema string, instance json.RawMessage) error {
	sch, err := jsonschema.CompileString("schema.json", schema)
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return err
	}

	if err := sch.Validate(v); err != nil {
		log.Errorf("config validation: %#v", err)
		return err
	}
	return nil
}
