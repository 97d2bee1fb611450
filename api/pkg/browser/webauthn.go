package browser

// blockWebAuthnScript runs before any page script. With PublicKeyCredential
// gone and navigator.credentials rejecting, the provider falls back to the
// password form instead of raising a platform passkey dialog.
const blockWebAuthnScript = `(() => {
	try {
		try { delete window.PublicKeyCredential; } catch (e) {}
		try {
			Object.defineProperty(window, 'PublicKeyCredential', { value: undefined, configurable: true, writable: false });
		} catch (e) {}

		const rejecting = {
			get: () => Promise.reject(new DOMException('NotAllowedError')),
			create: () => Promise.reject(new DOMException('NotAllowedError')),
			preventSilentAccess: () => Promise.resolve(),
		};
		if (navigator.credentials) {
			try {
				navigator.credentials.get = rejecting.get;
				navigator.credentials.create = rejecting.create;
				navigator.credentials.preventSilentAccess = rejecting.preventSilentAccess;
			} catch (e) {}
		} else {
			try {
				Object.defineProperty(navigator, 'credentials', { value: rejecting, configurable: true });
			} catch (e) {}
		}
	} catch (err) {}
})()`
