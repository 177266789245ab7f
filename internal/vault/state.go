package vault

import (
	"encoding/json"
	"os"
	"time"

	"TermVault/internal/model"
)

// LoadState reads the vault state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.VaultState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.VaultState{}, nil
		}
		return nil, err
	}
	var state model.VaultState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the vault state to a JSON file.
func SaveState(filePath string, state *model.VaultState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
