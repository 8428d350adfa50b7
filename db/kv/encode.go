package kv

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func encode(v interface{}) ([]byte, error) {
	enc, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode record")
	}
	return enc, nil
}

func decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to decode record")
	}
	return nil
}
