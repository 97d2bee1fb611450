package classifier

// Page signals for the identity provider. Selector lists are ordered, text
// phrases are matched lower-case against the visible body text.
var (
	otpInputSelectors = []string{
		`#auth-mfa-otpcode`,
		`input[name="otpCode"]`,
		`input[name="code"]`,
		`input[type="tel"]`,
		`input[inputmode="numeric"]`,
	}

	emailInputSelectors = []string{
		`#ap_email`,
		`input[name="email"]`,
		`input[type="email"]`,
	}

	passwordInputSelectors = []string{
		`#ap_password`,
		`input[name="password"]`,
		`input[type="password"]`,
	}

	pushURLMarkers  = []string{"/ap/cv/", "transactionapprox"}
	pushBodyPhrases = []string{"approve the notification", "sent to:", "amazonshopping", "check your device"}

	loginURLMarkers = []string{"/ap/signin", "/ap/login"}

	reAuthURLMarkers  = []string{"/ap/re-auth", "/ap/mfa/"}
	reAuthBodyPhrases = []string{"re-auth", "reauth", "verify it's you", "verify your identity"}

	twoFactorBodyPhrases = []string{"two-step verification", "two-factor authentication", "verification code", "enter code"}
	twoFactorURLMarkers  = []string{"mfa", "otp", "verify"}

	alertSelectors = []string{
		`.a-box-inner.a-alert-container`,
		`.a-alert-content`,
		`.a-list-item`,
	}
	invalidEmailPhrases      = []string{"cannot find an account", "no account found"}
	incorrectPasswordPhrases = []string{"password is incorrect", "incorrect password"}
	passkeyPhrases           = []string{"use your security key", "use your passkey", "windows security", "use another device", "security key"}
)
