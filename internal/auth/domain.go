package auth

// Operator is the account allowed to sign in to the admin pages.
type Operator struct {
	Email        string
	PasswordHash string
}
