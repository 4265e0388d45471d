// Package yamlwrapper contains a YAML unmarshaler.
package yamlwrapper

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/masterstream/masterstream/internal/conf/jsonwrapper"
)

// differences with respect to the standard package:
// - legacy YAML 1.1 booleans (yes, no) are supported
// - duplicate keys are rejected
// - all differences of jsonwrapper are inherited

// YAML map keys can be of any type, while JSON map keys must be strings.
func convertKeys(i any) any {
	switch x := i.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = convertKeys(v)
		}
		return m

	case []any:
		for i2, v := range x {
			x[i2] = convertKeys(v)
		}
	}

	return i
}

// Unmarshal loads the configuration from YAML.
func Unmarshal(buf []byte, dest any) error {
	var temp any
	err := yaml.UnmarshalStrict(buf, &temp)
	if err != nil {
		return err
	}

	temp = convertKeys(temp)

	// convert the intermediate representation into JSON
	buf, err = json.Marshal(temp)
	if err != nil {
		return err
	}

	// load JSON into destination
	return jsonwrapper.Unmarshal(buf, dest)
}
