package sqlite

import "fmt"

func sanitizeTableName(name string) (string, error) {
	if name == "" {
		return "", ErrTableNameRequired
	}
	for _, r := range name {
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}

		return "", fmt.Errorf("%w: %s", ErrInvalidTableName, name)
	}

	return name, nil
}
