package jsonc

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonc "github.com/muhammadmuzzammil1998/jsonc"
)

// Decode strips comments from data and unmarshals the result into dest.
// Numbers are kept as json.Number so nothing is lost before schema validation.
func Decode(data []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(Clean(data)))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected content after top-level value")
	}
	return nil
}

// Clean strips comments and trailing commas from JSONC input.
func Clean(data []byte) []byte {
	return jsonc.ToJSON(data)
}
