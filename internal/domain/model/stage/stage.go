package stage

// Stage identifies a node in the pipeline graph.
// The set is closed; routing code switches over it exhaustively.
type Stage string

const (
	Story          Stage = "story"
	HumanFeedback  Stage = "human_feedback"
	Design         Stage = "design"
	DesignReview   Stage = "design_review"
	GenerateCode   Stage = "generate_code"
	CodeReview     Stage = "code_review"
	CodeFix        Stage = "code_fix"
	SecurityReview Stage = "security_review"
	SecurityFix    Stage = "security_fix"
	WriteTests     Stage = "write_tests"
	TestReview     Stage = "test_review"
	QA             Stage = "qa"
	QAFix          Stage = "qa_fix"
	Deployment     Stage = "deployment"
	Done           Stage = "done"
)

// All lists every declared stage in pipeline order.
var All = []Stage{
	Story,
	HumanFeedback,
	Design,
	DesignReview,
	GenerateCode,
	CodeReview,
	CodeFix,
	SecurityReview,
	SecurityFix,
	WriteTests,
	TestReview,
	QA,
	QAFix,
	Deployment,
	Done,
}

var valid = func() map[Stage]bool {
	m := make(map[Stage]bool, len(All))
	for _, s := range All {
		m[s] = true
	}
	return m
}()

// Valid reports whether s is a declared stage.
func Valid(s Stage) bool {
	return valid[s]
}

func (s Stage) String() string {
	return string(s)
}

// Gate names. A gate pairs a reviewer stage with its producer; the
// rejection counters and feedback slots in the workflow state are keyed
// by these names.
const (
	GateProduct  = "product"
	GateDesign   = "design"
	GateCode     = "code"
	GateSecurity = "security"
	GateTests    = "tests"
	GateQA       = "qa"
)

// GateNames lists the gates that carry a rejection counter.
// The product gate is human-driven and never force-advances, so it is
// not part of this set.
var GateNames = []string{GateDesign, GateCode, GateSecurity, GateTests, GateQA}
