package commands

import (
	"fmt"

	"github.com/DeprecatedLuar/sqldevcfg/internal/crypto"
	"github.com/DeprecatedLuar/sqldevcfg/internal/presentation"
)

// HandleDecrypt decrypts one password with a db.system.id value.
func HandleDecrypt(rt *Runtime, encrypted, machineID string) error {
	if machineID == "" {
		return fmt.Errorf("usage: sqldevcfg decrypt -p <encrypted-password> -d <db-system-id>")
	}

	plain, err := crypto.Decrypt(encrypted, machineID)
	if err != nil {
		return err
	}
	return rt.output(presentation.PasswordDTO{Password: plain})
}

// HandleEncrypt encrypts one password with a db.system.id value. An empty
// password is prompted for without echo.
func HandleEncrypt(rt *Runtime, plaintext, machineID string) error {
	if machineID == "" {
		return fmt.Errorf("usage: sqldevcfg encrypt -p <password> -d <db-system-id>")
	}

	if plaintext == "" {
		var err error
		plaintext, err = rt.prompter().AskPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	encrypted, err := crypto.Encrypt(plaintext, machineID)
	if err != nil {
		return err
	}
	return rt.output(presentation.PasswordDTO{Password: encrypted})
}
