package auth

import (
	"github.com/nbutton23/zxcvbn-go"

	"stashd/internal/httperr"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 70

	// Estimator scores range 0..4; anything below 3 is guessable.
	minPasswordScore = 3
)

// CheckPasswordStrength validates a candidate password: length within
// [8, 70] and an entropy score of at least 3. userInputs carries values the
// password must not be derived from (the account's email, display name, and
// the product name); the estimator penalizes matches against them.
func CheckPasswordStrength(password string, userInputs []string) error {
	if len(password) < minPasswordLen {
		return httperr.UnprocessableEntity().WithText("the new password is too short")
	}
	if len(password) > maxPasswordLen {
		return httperr.UnprocessableEntity().WithText("the new password is too long")
	}
	if zxcvbn.PasswordStrength(password, userInputs).Score < minPasswordScore {
		return httperr.UnprocessableEntity().WithText("the new password is too weak")
	}
	return nil
}
