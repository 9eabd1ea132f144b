// Package pipeline chains batch processing stages through channels. Each
// stage runs in its own goroutine and hands its result to the next one.
package pipeline

import (
	"time"

	"github.com/pkg/errors"

	"marketseg/internal/logging"
)

type envelope[T any] struct {
	data T
	err  error
}

type Stage[T any] struct {
	name    string
	input   chan envelope[T]
	output  chan envelope[T]
	process func(T) (T, error)
}

func NewStage[T any](name string, process func(T) (T, error)) *Stage[T] {
	return &Stage[T]{
		name:    name,
		input:   make(chan envelope[T]),
		output:  make(chan envelope[T]),
		process: process,
	}
}

func (s *Stage[T]) Name() string { return s.name }

func (s *Stage[T]) run(logger *logging.Logger) {
	go func() {
		defer close(s.output)
		logger.Debug("stage [%s] waiting for input", s.name)
		for env := range s.input {
			if env.err != nil {
				logger.Debug("stage [%s] skipped after upstream failure", s.name)
				s.output <- env
				continue
			}
			logger.Info("stage [%s] started", s.name)
			start := time.Now()
			out, err := s.process(env.data)
			if err != nil {
				logger.Error("stage [%s] failed after %v: %v", s.name, time.Since(start), err)
				s.output <- envelope[T]{data: out, err: errors.Wrapf(err, "stage %s", s.name)}
				continue
			}
			logger.Info("stage [%s] completed in %v", s.name, time.Since(start))
			s.output <- envelope[T]{data: out}
		}
	}()
}

// Run pushes data through stages in order and returns the last stage's
// result. The first failing stage stops processing; later stages pass the
// error through untouched.
func Run[T any](logger *logging.Logger, data T, stages ...*Stage[T]) (T, error) {
	if len(stages) == 0 {
		return data, nil
	}
	for _, stage := range stages {
		stage.run(logger)
	}
	for i := 0; i < len(stages)-1; i++ {
		current, next := stages[i], stages[i+1]
		go func() {
			for result := range current.output {
				next.input <- result
			}
			close(next.input)
		}()
	}

	start := time.Now()
	stages[0].input <- envelope[T]{data: data}
	close(stages[0].input)

	res := <-stages[len(stages)-1].output
	if res.err != nil {
		return res.data, res.err
	}
	logger.Info("pipeline finished %d stages in %v", len(stages), time.Since(start))
	return res.data, nil
}
