package auth

import (
	"github.com/google/uuid"
)

// FakePasswordCheck burns the same Argon2id work as a real verification
// against a throwaway value. Every authentication-failure path that skipped
// the real hash comparison (unknown email, disabled account) must call it so
// that response timing does not reveal whether the account exists.
//
// This only approximates constant time: a database miss still costs slightly
// less than a hit plus compare. That residual difference is a known,
// accepted limitation.
func FakePasswordCheck() {
	_, _ = HashPassword(uuid.NewString(), DefaultArgon2Params())
}
