package originpolicy

// Rule identifies which allow rule produced a Decision.
type Rule int

const (
	// RuleNone means no rule matched and the origin is rejected.
	RuleNone Rule = iota
	RuleNoOrigin
	RuleWildcard
	RuleAllowlisted
	RuleLocalhost
	RuleBrowserExtension
)

var ruleNames = map[Rule]string{
	RuleNone:             "none",
	RuleNoOrigin:         "no_origin",
	RuleWildcard:         "wildcard",
	RuleAllowlisted:      "allowlisted",
	RuleLocalhost:        "localhost",
	RuleBrowserExtension: "browser_extension",
}

func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Decision is the outcome of evaluating a request origin.
type Decision struct {
	Allowed bool
	Rule    Rule
}
