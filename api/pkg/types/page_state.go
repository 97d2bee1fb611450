package types

import "fmt"

type PageKind string

const (
	PageKindUnclassified    PageKind = "unclassified"
	PageKindOnTarget        PageKind = "on_target"
	PageKindNeedsFullLogin  PageKind = "needs_full_login"
	PageKindNeedsReAuth     PageKind = "needs_reauth"
	PageKindOn2FA           PageKind = "on_2fa"
	PageKindUnknownAuthPage PageKind = "unknown_auth_page"
)

// MfaMethod values double as the human readable method names sent to the
// controller, which keys its OTP modal off the "OTP" substring.
type MfaMethod string

const (
	MfaMethodNone    MfaMethod = ""
	MfaMethodOtp     MfaMethod = "OTP (SMS/Voice)"
	MfaMethodPush    MfaMethod = "Push Notification"
	MfaMethodUnknown MfaMethod = "Unknown 2FA Method"
)

// PageState is derived from the live session on demand. Method is only set
// when Kind is PageKindOn2FA.
type PageState struct {
	Kind   PageKind
	Method MfaMethod
}

var (
	StateUnclassified    = PageState{Kind: PageKindUnclassified}
	StateOnTarget        = PageState{Kind: PageKindOnTarget}
	StateNeedsFullLogin  = PageState{Kind: PageKindNeedsFullLogin}
	StateNeedsReAuth     = PageState{Kind: PageKindNeedsReAuth}
	StateUnknownAuthPage = PageState{Kind: PageKindUnknownAuthPage}
)

func On2FA(method MfaMethod) PageState {
	return PageState{Kind: PageKindOn2FA, Method: method}
}

func (s PageState) IsOnTarget() bool {
	return s.Kind == PageKindOnTarget
}

func (s PageState) Is2FA() bool {
	return s.Kind == PageKindOn2FA
}

func (s PageState) IsOtp() bool {
	return s.Kind == PageKindOn2FA && s.Method == MfaMethodOtp
}

func (s PageState) IsPush() bool {
	return s.Kind == PageKindOn2FA && s.Method == MfaMethodPush
}

func (s PageState) String() string {
	if s.Kind == PageKindOn2FA {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Method)
	}
	return string(s.Kind)
}
