package utils

import (
	"bufio"
	"fmt"
	"github.com/twmb/murmur3"
	"os"
	"strings"
)

// RecoverWithError converts a panic in the deferring function into an error.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("got panic: %v", rv)
	}
}

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}

// ReadMap loads a pipe-delimited two-column file into a map. Lines without a
// second column are skipped.
func ReadMap(filePath string) (map[string]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	result := make(map[string]string)
	for scanner.Scan() {
		p := strings.SplitN(scanner.Text(), "|", 2)
		if len(p) < 2 {
			continue
		}
		result[p[0]] = p[1]
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
