package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/craftflow/craftflow/internal/application/port/output"
	"github.com/craftflow/craftflow/internal/artifact"
	"github.com/craftflow/craftflow/internal/domain/model/stage"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
	"github.com/craftflow/craftflow/internal/domain/service/gate"
	"github.com/craftflow/craftflow/internal/pipeline"
)

// Options wire the external dependencies of the pipeline graph.
type Options struct {
	Agent     output.AgentGateway
	Store     output.ArtifactStore
	Publisher output.PublishGateway // nil disables publishing
	Pipeline  *pipeline.Config
	Timeout   time.Duration // per agent call

	PublishFatal bool // a failed publish aborts the deployment stage

	Log Logger
}

type builder struct {
	agent     output.AgentGateway
	store     output.ArtifactStore
	publisher output.PublishGateway
	cfg       *pipeline.Config
	ctrl      *gate.Controller
	timeout   time.Duration

	publishFatal bool

	log Logger
}

// BuildGraph assembles the full pipeline graph. The shape is fixed;
// only gate thresholds, the approval token, and the post-deployment
// edge come from pipeline.yaml.
func BuildGraph(opts Options) (*Graph, error) {
	if opts.Agent == nil {
		return nil, fmt.Errorf("graph: agent gateway is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("graph: artifact store is required")
	}
	cfg := opts.Pipeline
	if cfg == nil {
		cfg = pipeline.DefaultConfig()
	}
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}

	b := &builder{
		agent:        opts.Agent,
		store:        opts.Store,
		publisher:    opts.Publisher,
		cfg:          cfg,
		ctrl:         gate.NewController(cfg.ApprovalToken),
		timeout:      opts.Timeout,
		publishFatal: opts.PublishFatal,
		log:          log,
	}

	gateDesign := b.gateFor(stage.GateDesign, stage.GenerateCode, stage.Design)
	gateCode := b.gateFor(stage.GateCode, stage.SecurityReview, stage.CodeFix)
	gateSecurity := b.gateFor(stage.GateSecurity, stage.WriteTests, stage.SecurityFix)
	gateTests := b.gateFor(stage.GateTests, stage.QA, stage.WriteTests)
	gateQA := b.gateFor(stage.GateQA, stage.Deployment, stage.QAFix)

	nodes := []*Node{
		{ID: stage.Story, Run: b.story, Next: stage.HumanFeedback},
		{ID: stage.HumanFeedback, Run: b.humanFeedback, Route: b.routeHumanFeedback, Interrupt: true},

		{ID: stage.Design, Run: b.design, Next: stage.DesignReview},
		{ID: stage.DesignReview, Run: b.review(stage.DesignReview, stage.GateDesign, designReviewPrompt), Route: b.gateRoute(gateDesign)},

		{ID: stage.GenerateCode, Run: b.generateCode, Next: stage.CodeReview},
		{ID: stage.CodeReview, Run: b.review(stage.CodeReview, stage.GateCode, codeReviewPrompt), Route: b.gateRoute(gateCode)},
		{ID: stage.CodeFix, Run: b.fix(stage.CodeFix, stage.GateCode, codeFixPrompt), Next: stage.CodeReview},

		{ID: stage.SecurityReview, Run: b.review(stage.SecurityReview, stage.GateSecurity, securityReviewPrompt), Route: b.gateRoute(gateSecurity)},
		{ID: stage.SecurityFix, Run: b.fix(stage.SecurityFix, stage.GateSecurity, securityFixPrompt), Next: stage.CodeReview},

		{ID: stage.WriteTests, Run: b.writeTests, Next: stage.TestReview},
		{ID: stage.TestReview, Run: b.review(stage.TestReview, stage.GateTests, testReviewPrompt), Route: b.gateRoute(gateTests)},

		{ID: stage.QA, Run: b.review(stage.QA, stage.GateQA, qaPrompt), Route: b.gateRoute(gateQA)},
		{ID: stage.QAFix, Run: b.fix(stage.QAFix, stage.GateQA, qaFixPrompt), Next: stage.CodeReview},

		{ID: stage.Deployment, Run: b.deployment, Route: b.routeDeployment},
		{ID: stage.Done, Terminal: true},
	}

	return NewGraph(stage.Story, nodes)
}

func (b *builder) gateFor(name string, pass, retry stage.Stage) gate.Gate {
	return gate.Gate{
		Name:      name,
		Pass:      pass,
		Retry:     retry,
		Threshold: b.cfg.Threshold(name, gate.DefaultThreshold),
	}
}

// invoke sends one prompt to the agent and returns its text output.
func (b *builder) invoke(ctx context.Context, id stage.Stage, prompt string) (string, error) {
	resp, err := b.agent.Execute(ctx, output.AgentRequest{
		Prompt:  prompt,
		Stage:   id.String(),
		Timeout: b.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("stage %s: agent: %w", id, err)
	}
	return resp.Output, nil
}

// story drafts or refines the user story. Human feedback from the last
// suspension, if any, is folded in and then consumed.
func (b *builder) story(ctx context.Context, st *workflow.State) error {
	prompt, err := expand(storyPrompt, st, stage.GateProduct)
	if err != nil {
		return err
	}
	out, err := b.invoke(ctx, stage.Story, prompt)
	if err != nil {
		return err
	}
	st.SetDocument(workflow.DocStory, out)
	delete(st.Feedback, stage.GateProduct)
	return nil
}

// humanFeedback is the suspension point. The stage itself does
// nothing; feedback arrives through Engine.Resume before the outgoing
// edge is routed.
func (b *builder) humanFeedback(ctx context.Context, st *workflow.State) error {
	return nil
}

// routeHumanFeedback sends the session back to the story stage when
// the human left revision feedback, and forward to design on approval.
func (b *builder) routeHumanFeedback(st *workflow.State) (stage.Stage, string, error) {
	if strings.TrimSpace(st.Feedback[stage.GateProduct]) != "" {
		return stage.Story, string(gate.DecisionRejected), nil
	}
	return stage.Design, string(gate.DecisionApproved), nil
}

func (b *builder) design(ctx context.Context, st *workflow.State) error {
	prompt, err := expand(designPrompt, st, stage.GateDesign)
	if err != nil {
		return err
	}
	out, err := b.invoke(ctx, stage.Design, prompt)
	if err != nil {
		return err
	}
	st.SetDocument(workflow.DocDesign, out)
	return nil
}

// review returns an action that runs a reviewer prompt and stores the
// raw verdict in the gate's feedback slot. The verdict is judged by
// the gate controller when the outgoing edge is routed.
func (b *builder) review(id stage.Stage, gateName string, tmpl string) Action {
	return func(ctx context.Context, st *workflow.State) error {
		prompt, err := expand(tmpl+reviewInstruction(b.ctrl.ApprovalToken()), st, gateName)
		if err != nil {
			return err
		}
		out, err := b.invoke(ctx, id, prompt)
		if err != nil {
			return err
		}
		st.Feedback[gateName] = out
		return nil
	}
}

// gateRoute returns a router that evaluates the gate against the
// verdict its review action just recorded.
func (b *builder) gateRoute(g gate.Gate) Router {
	return func(st *workflow.State) (stage.Stage, string, error) {
		res := b.ctrl.Evaluate(g, st.Feedback[g.Name], st)
		if res.Decision == gate.DecisionForced {
			b.log.Warn("gate %s force-advanced after %d consecutive rejections; artifact is unreviewed", g.Name, g.Threshold)
		}
		return res.Next, string(res.Decision), nil
	}
}

func (b *builder) generateCode(ctx context.Context, st *workflow.State) error {
	if err := requireProjectDir(st); err != nil {
		return err
	}
	prompt, err := expand(generateCodePrompt+fileFormatInstruction, st, stage.GateCode)
	if err != nil {
		return err
	}
	out, err := b.invoke(ctx, stage.GenerateCode, prompt)
	if err != nil {
		return err
	}
	files := b.parse(stage.GenerateCode, out, true)
	if len(files) == 0 {
		b.log.Warn("stage %s: agent output contained no usable files", stage.GenerateCode)
	}
	st.SetArtifacts(workflow.SlotCode, files)
	return b.writeFiles(st.ProjectDir, files)
}

// fix returns an action that regenerates part of the code artifact in
// response to a gate's feedback. Returned files overlay the existing
// code map; files the agent did not touch are preserved.
func (b *builder) fix(id stage.Stage, gateName string, tmpl string) Action {
	return func(ctx context.Context, st *workflow.State) error {
		if err := requireProjectDir(st); err != nil {
			return err
		}
		prompt, err := expand(tmpl+fileFormatInstruction, st, gateName)
		if err != nil {
			return err
		}
		out, err := b.invoke(ctx, id, prompt)
		if err != nil {
			return err
		}
		changed := b.parse(id, out, true)
		code := st.Code()
		if code == nil {
			code = artifact.Map{}
		}
		for p, content := range changed {
			code[p] = content
		}
		st.SetArtifacts(workflow.SlotCode, code)
		return b.writeFiles(st.ProjectDir, changed)
	}
}

func (b *builder) writeTests(ctx context.Context, st *workflow.State) error {
	if err := requireProjectDir(st); err != nil {
		return err
	}
	prompt, err := expand(writeTestsPrompt+fileFormatInstruction, st, stage.GateTests)
	if err != nil {
		return err
	}
	out, err := b.invoke(ctx, stage.WriteTests, prompt)
	if err != nil {
		return err
	}
	files := b.parse(stage.WriteTests, out, true)
	st.SetArtifacts(workflow.SlotTests, files)
	return b.writeFiles(st.ProjectDir, files)
}

// deployment generates deployment files and pushes the artifact to the
// remote repository when a publisher is configured. Publish failures
// are logged and summarized; they abort the stage only when configured
// as fatal.
func (b *builder) deployment(ctx context.Context, st *workflow.State) error {
	if err := requireProjectDir(st); err != nil {
		return err
	}
	prompt, err := expand(deploymentPrompt+fileFormatInstruction, st, stage.GateQA)
	if err != nil {
		return err
	}
	out, err := b.invoke(ctx, stage.Deployment, prompt)
	if err != nil {
		return err
	}
	// Lenient paths here: Dockerfile, Makefile and friends have no
	// extension.
	files := b.parse(stage.Deployment, out, false)
	st.SetArtifacts(workflow.SlotDeployment, files)
	if err := b.writeFiles(st.ProjectDir, files); err != nil {
		return err
	}

	if b.publisher == nil {
		return nil
	}
	return b.publish(ctx, st, files)
}

func (b *builder) publish(ctx context.Context, st *workflow.State, deploy artifact.Map) error {
	toPush := artifact.Map{}
	for p, content := range st.Code() {
		toPush[p] = content
	}
	for p, content := range st.Artifacts[workflow.SlotTests] {
		toPush[p] = content
	}
	for p, content := range deploy {
		toPush[p] = content
	}

	summary := &output.PublishSummary{}
	for _, p := range toPush.Paths() {
		err := b.publisher.UpsertFile(ctx, p, toPush[p], "craftflow: publish "+p)
		if err != nil {
			b.log.Warn("publish %s: %v", p, err)
		}
		summary.Results = append(summary.Results, output.FileResult{Path: p, Error: err})
	}
	b.log.Info("published %d/%d files", summary.Succeeded(), len(summary.Results))

	if summary.Failed() > 0 {
		title := fmt.Sprintf("craftflow: %d files failed to publish", summary.Failed())
		if _, err := b.publisher.CreateIssue(ctx, title, publishFailureBody(summary), []string{"craftflow"}); err != nil {
			b.log.Warn("publish failure issue: %v", err)
		}
	}

	if wf, ok := deployWorkflow(deploy); ok {
		if err := b.publisher.TriggerPipeline(ctx, wf); err != nil {
			b.log.Warn("trigger workflow %s: %v", wf, err)
		}
	}

	if b.publishFatal && summary.Failed() > 0 {
		return fmt.Errorf("deployment: %d of %d files failed to publish", summary.Failed(), len(summary.Results))
	}
	return nil
}

// routeDeployment closes the improvement loop when pipeline.yaml asks
// for continuous mode, and terminates the session otherwise.
func (b *builder) routeDeployment(st *workflow.State) (stage.Stage, string, error) {
	if b.cfg.Continuous {
		return stage.GenerateCode, "continue", nil
	}
	return stage.Done, "finish", nil
}

func (b *builder) parse(id stage.Stage, text string, strict bool) artifact.Map {
	return artifact.Parse(text, artifact.Options{
		StrictExtensions: strict,
		Warn: func(format string, args ...interface{}) {
			b.log.Warn("stage "+id.String()+": "+format, args...)
		},
	})
}

func (b *builder) writeFiles(projectDir string, files artifact.Map) error {
	for _, p := range files.Paths() {
		if err := b.store.Write(projectDir, p, files[p]); err != nil {
			return fmt.Errorf("write artifact %s: %w", p, err)
		}
	}
	return nil
}

func requireProjectDir(st *workflow.State) error {
	if strings.TrimSpace(st.ProjectDir) == "" {
		return fmt.Errorf("project directory is not configured; run init or pass --project")
	}
	return nil
}

// publishFailureBody renders the per-file publish failures for the
// tracking issue.
func publishFailureBody(summary *output.PublishSummary) string {
	var b strings.Builder
	b.WriteString("The following files could not be pushed:\n\n")
	for _, r := range summary.Results {
		if r.Error != nil {
			fmt.Fprintf(&b, "- `%s`: %v\n", r.Path, r.Error)
		}
	}
	return b.String()
}

// deployWorkflow finds a CI workflow file among the deployment
// artifacts so it can be dispatched after the push.
func deployWorkflow(deploy artifact.Map) (string, bool) {
	for _, p := range deploy.Paths() {
		if strings.HasPrefix(p, ".github/workflows/") {
			return strings.TrimPrefix(p, ".github/workflows/"), true
		}
	}
	return "", false
}

// recordedArtifacts maps a stage to the artifact paths it is
// responsible for, for journaling.
func recordedArtifacts(id stage.Stage, st *workflow.State) []string {
	switch id {
	case stage.GenerateCode, stage.CodeFix, stage.SecurityFix, stage.QAFix:
		return st.Code().Paths()
	case stage.WriteTests:
		return st.Artifacts[workflow.SlotTests].Paths()
	case stage.Deployment:
		return st.Artifacts[workflow.SlotDeployment].Paths()
	}
	return nil
}
