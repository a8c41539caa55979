package auction

// Origin is the authority a call runs under: a signed account or root.
type Origin struct {
	account string
	root    bool
}

// Signed returns the origin of a call signed by account.
func Signed(account string) Origin {
	return Origin{account: account}
}

// Root returns the privileged origin.
func Root() Origin {
	return Origin{root: true}
}

// IsRoot reports whether the origin is privileged.
func (o Origin) IsRoot() bool {
	return o.root
}

// Account returns the signer, or false for root and the zero Origin.
func (o Origin) Account() (string, bool) {
	if o.root || o.account == "" {
		return "", false
	}
	return o.account, true
}

func (o Origin) String() string {
	if o.root {
		return "root"
	}
	return o.account
}

func ensureSigned(o Origin) (string, error) {
	who, ok := o.Account()
	if !ok {
		return "", newError(CodeBadOrigin, "expected signed origin, got %q", o.String())
	}
	return who, nil
}

func ensureRoot(o Origin) error {
	if !o.IsRoot() {
		return newError(CodeBadOrigin, "expected root origin, got %q", o.String())
	}
	return nil
}
