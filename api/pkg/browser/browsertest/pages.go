package browsertest

// Canned provider pages used across package tests.
var (
	TargetPage = Page{
		URL:  "https://www.amazon.in/alexa-privacy/apd/rvh",
		HTML: `<html><body><h1>Review Voice History</h1></body></html>`,
	}

	SignInPage = Page{
		URL: "https://www.amazon.in/ap/signin?openid.return_to=rvh",
		HTML: `<html><body><form name="signIn">
<input type="email" id="ap_email" name="email">
<input type="submit" id="continue">
</form></body></html>`,
	}

	PasswordPage = Page{
		URL: "https://www.amazon.in/ap/signin?step=password",
		HTML: `<html><body><form name="signIn">
<input type="password" id="ap_password" name="password">
<input type="submit" id="signInSubmit">
</form></body></html>`,
	}

	ReAuthPage = Page{
		URL: "https://www.amazon.in/ap/re-auth?openid.return_to=rvh",
		HTML: `<html><body><h1>Verify it's you</h1><form>
<input type="password" id="ap_password" name="password">
<input type="submit" id="signInSubmit">
</form></body></html>`,
	}

	OtpPage = Page{
		URL: "https://www.amazon.in/ap/mfa?arb=1",
		HTML: `<html><body><h1>Two-Step Verification</h1><form>
<input type="tel" id="auth-mfa-otpcode" name="otpCode">
<span id="cvf-submit-otp-button"><span><input type="submit"></span></span>
</form></body></html>`,
	}

	PushPage = Page{
		URL:  "https://www.amazon.in/ap/cv/transactionapproval?arb=2",
		HTML: `<html><body><p>To continue, approve the notification sent to:</p><p>Amazon Shopping app</p></body></html>`,
	}

	UnknownMfaPage = Page{
		URL:  "https://www.amazon.in/ap/challenge?arb=3",
		HTML: `<html><body><p>Solve this puzzle to protect your account</p></body></html>`,
	}

	InvalidEmailPage = Page{
		URL: "https://www.amazon.in/ap/signin",
		HTML: `<html><body><div class="a-box-inner a-alert-container"><h4>There was a problem</h4>
<div class="a-alert-content"><ul><li><span class="a-list-item">We cannot find an account with that email address</span></li></ul></div></div>
<input type="email" id="ap_email" name="email"></body></html>`,
	}

	IncorrectPasswordPage = Page{
		URL: "https://www.amazon.in/ap/signin",
		HTML: `<html><body><div class="a-box-inner a-alert-container"><h4>There was a problem</h4>
<div class="a-alert-content"><ul><li><span class="a-list-item">Your password is incorrect</span></li></ul></div></div>
<input type="password" id="ap_password" name="password"></body></html>`,
	}
)
