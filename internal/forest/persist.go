package forest

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// Save writes the model to path with encoding/gob.
func Save(path string, m *Model) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	if err := gob.NewEncoder(file).Encode(m); err != nil {
		file.Close()
		return errors.Wrap(err, "failed to encode model")
	}
	return errors.Wrap(file.Close(), "failed to close model file")
}

func Load(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open model file")
	}
	defer file.Close()

	var m Model
	if err := gob.NewDecoder(file).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "failed to decode model")
	}
	return &m, nil
}
