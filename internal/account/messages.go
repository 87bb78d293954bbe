package account

import (
	"fmt"

	"stashd/internal/db"
	"stashd/internal/mail"
)

func fromHeader(noreply string) string {
	return fmt.Sprintf("%s <%s>", ProductName, noreply)
}

func resetRequestMessage(noreply string, a *db.Account, domain, token string) mail.Message {
	return mail.Message{
		From:    fromHeader(noreply),
		To:      a.Email,
		Subject: "Password reset",
		Body: fmt.Sprintf(`Hello, %s!
A password reset request has been sent for your account.
If you requested the reset, you can set up a new password by visiting https://%s/password_reset/verify?token=%s and following the steps.
If this is not the case, you can simply ignore this email.

Note: the above link expires after 24 hours. In this case, you can request a new link by visiting https://%s/password_reset/request and following the steps.

Best,
%s`, a.Display, domain, token, domain, ProductName),
	}
}

func changeConfirmationMessage(noreply, support string, a *db.Account) mail.Message {
	return mail.Message{
		From:    fromHeader(noreply),
		To:      a.Email,
		Subject: "Password change",
		Body: fmt.Sprintf(`Hello, %s!

Your password has been updated.
If you requested the change, no further action is required.
If you did NOT request the change, please write immediately to %s explaining the situation.

Best,
%s`, a.Display, support, ProductName),
	}
}

func inviteMessage(noreply string, a *db.Account, domain, token string) mail.Message {
	return mail.Message{
		From:    fromHeader(noreply),
		To:      a.Email,
		Subject: fmt.Sprintf("Welcome to %s", ProductName),
		Body: fmt.Sprintf(`Hello, %s!

An account has been created for you.
To pick your password and start using it, visit https://%s/password_reset/verify?token=%s and follow the steps.

Note: the above link expires after 24 hours. If it already has, you can request a new one by visiting https://%s/password_reset/request.

Best,
%s`, a.Display, domain, token, domain, ProductName),
	}
}
