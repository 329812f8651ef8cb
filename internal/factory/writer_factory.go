package factory

import (
	"fmt"

	"FlowSpectra/internal/config"
	"FlowSpectra/internal/model"

	log "github.com/sirupsen/logrus"
)

// WriterFactory builds a writer from its config entry. columns are the
// feature column names of the vectors the writer will receive.
type WriterFactory func(def config.WriterDef, columns []string) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered reports whether a writer type is known.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}

// Create builds every enabled writer in cfg. On error the writers created
// so far are closed.
func Create(cfg *config.Config, columns []string) ([]model.Writer, error) {
	var writers []model.Writer

	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		log.Printf("Creating writer of type: '%s'", def.Type)

		factory, ok := registry[def.Type]
		if !ok {
			closeAll(writers)
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}

		w, err := factory(def, columns)
		if err != nil {
			closeAll(writers)
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		writers = append(writers, w)
	}

	return writers, nil
}

func closeAll(writers []model.Writer) {
	for _, w := range writers {
		if err := w.Close(); err != nil {
			log.Printf("Error closing writer %s: %v", w.Name(), err)
		}
	}
}
