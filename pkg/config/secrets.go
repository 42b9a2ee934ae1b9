package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/term"
)

// Secrets file configuration.
const (
	secretsFileName = "secrets.json.enc"
	saltSize        = 16
	nonceSize       = 12
	scryptN         = 32768 // 2^15
	scryptR         = 8
	scryptP         = 1
	keySize         = 32 // AES-256
)

// Global state for decrypted secrets.
//
//nolint:gochecknoglobals // Intentional global state for in-memory secrets storage
var (
	decryptedSecrets    map[string]string
	decryptedSecretsMux sync.RWMutex
)

// SetDecryptedSecrets stores decrypted secrets in memory.
func SetDecryptedSecrets(secrets map[string]string) {
	decryptedSecretsMux.Lock()
	defer decryptedSecretsMux.Unlock()
	decryptedSecrets = secrets
}

// GetSecret returns an in-memory secret value by name, or "" when absent.
func GetSecret(name string) string {
	decryptedSecretsMux.RLock()
	defer decryptedSecretsMux.RUnlock()
	return decryptedSecrets[name]
}

// SetSecret sets a secret value in memory.
func SetSecret(name, value string) {
	decryptedSecretsMux.Lock()
	defer decryptedSecretsMux.Unlock()

	if decryptedSecrets == nil {
		decryptedSecrets = make(map[string]string)
	}
	decryptedSecrets[name] = value
}

// SecretsFileExists checks whether secrets.json.enc exists in the project dir.
func SecretsFileExists(projectDir string) bool {
	path := filepath.Join(projectDir, ProjectConfigDir, secretsFileName)
	_, err := os.Stat(path)
	return err == nil
}

// PromptPassphrase reads a passphrase from the terminal without echo.
func PromptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(passphrase), nil
}

// EnsureSecretsLoaded decrypts the secrets file into memory when one exists
// and an API key may still be missing from the environment. The passphrase
// comes from TOEICQ_SECRETS_PASSPHRASE, falling back to an interactive
// prompt. A no-op when there is no secrets file or both provider keys are
// already set in the environment.
func EnsureSecretsLoaded(projectDir string) error {
	if !SecretsFileExists(projectDir) {
		return nil
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" && os.Getenv(EnvAnthropicAPIKey) != "" {
		return nil
	}
	return LoadSecretsFile(projectDir, os.Getenv(EnvSecretsPassphrase))
}

// LoadSecretsFile decrypts the secrets file into memory so GetSecret can
// serve API keys. Prompts for the passphrase when passphrase is empty.
func LoadSecretsFile(projectDir, passphrase string) error {
	if passphrase == "" {
		var err error
		passphrase, err = PromptPassphrase("Secrets passphrase: ")
		if err != nil {
			return err
		}
	}

	secrets, err := DecryptSecretsFile(projectDir, passphrase)
	if err != nil {
		return err
	}
	SetDecryptedSecrets(secrets)
	return nil
}

// EncryptSecretsFile encrypts and saves secrets to .toeicq/secrets.json.enc.
// The file layout is [salt][nonce][ciphertext+tag] with a 0600 mode.
func EncryptSecretsFile(projectDir, passphrase string, secrets map[string]string) error {
	passphraseBytes := []byte(passphrase)
	defer zero(passphraseBytes)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key(passphraseBytes, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return fmt.Errorf("failed to derive encryption key: %w", err)
	}
	defer zero(key)

	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	fileData := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	fileData = append(fileData, salt...)
	fileData = append(fileData, nonce...)
	fileData = append(fileData, ciphertext...)

	configDir := filepath.Join(projectDir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(configDir, secretsFileName)
	if err := os.WriteFile(path, fileData, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// DecryptSecretsFile decrypts and returns secrets from .toeicq/secrets.json.enc.
func DecryptSecretsFile(projectDir, passphrase string) (map[string]string, error) {
	path := filepath.Join(projectDir, ProjectConfigDir, secretsFileName)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets file: %w", err)
	}
	if info.Mode().Perm() != 0o600 {
		getLogger().Warn("Secrets file has loose permissions (%04o), correcting to 0600", info.Mode().Perm())
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			return nil, fmt.Errorf("failed to fix file permissions: %w", chmodErr)
		}
	}

	fileData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	minSize := saltSize + nonceSize + 16 // 16 is GCM tag size
	if len(fileData) < minSize {
		return nil, fmt.Errorf("secrets file is corrupted or invalid format (too small)")
	}

	salt := fileData[:saltSize]
	nonce := fileData[saltSize : saltSize+nonceSize]
	ciphertext := fileData[saltSize+nonceSize:]

	passphraseBytes := []byte(passphrase)
	defer zero(passphraseBytes)

	key, err := scrypt.Key(passphraseBytes, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive decryption key: %w", err)
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase or corrupted file)")
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return secrets, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
