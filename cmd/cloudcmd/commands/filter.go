package commands

import (
	"fmt"
	"io"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
)

// RunFilter filters the log file and writes matching events to output.
// It returns the number of events written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	filter, err := opts.Build()
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Close()
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if err := logger.Close(); err != nil {
		return count, err
	}
	if _, failed := logger.Stats(); failed > 0 {
		return count, fmt.Errorf("%d events could not be written to %s", failed, output)
	}
	return count, nil
}
