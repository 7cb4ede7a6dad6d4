package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Operator represents a front-desk or admin account
type Operator struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt
	Active       bool
}

// OperatorStore manages operator authentication
type OperatorStore struct {
	mu        sync.RWMutex
	operators map[string]*Operator // username -> operator
}

// NewOperatorStore creates an empty operator store
func NewOperatorStore() *OperatorStore {
	return &OperatorStore{
		operators: make(map[string]*Operator),
	}
}

// AddOperator registers an operator with a pre-computed bcrypt hash. This is
// how operators configured through the environment are loaded at startup.
func (os *OperatorStore) AddOperator(username, passwordHash, operatorID string) {
	os.mu.Lock()
	defer os.mu.Unlock()

	os.operators[username] = &Operator{
		ID:           operatorID,
		Username:     username,
		PasswordHash: passwordHash,
		Active:       true,
	}
}

// AddOperatorWithPassword hashes the given password and registers the
// operator. Used by tests and local setups.
func (os *OperatorStore) AddOperatorWithPassword(username, password, operatorID string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	os.AddOperator(username, string(hash), operatorID)
	return nil
}

// Authenticate verifies credentials and returns the operator
func (os *OperatorStore) Authenticate(username, password string) (*Operator, error) {
	os.mu.RLock()
	defer os.mu.RUnlock()

	op, exists := os.operators[username]
	if !exists {
		return nil, fmt.Errorf("operator not found")
	}
	if !op.Active {
		return nil, fmt.Errorf("operator inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid password")
	}
	return op, nil
}
