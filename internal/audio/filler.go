package audio

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
)

// RandomFiller picks one pre-recorded clip from dir, uniformly at random.
func RandomFiller(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read filler directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}
	if len(files) == 0 {
		return "", errors.New("no filler audio files found")
	}
	return filepath.Join(dir, files[rand.IntN(len(files))]), nil
}
