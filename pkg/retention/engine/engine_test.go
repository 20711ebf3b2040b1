package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodia-hq/saturn/pkg/audit"
	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/document/storage"
	"custodia-hq/saturn/pkg/events"
	"custodia-hq/saturn/pkg/queue"
	"custodia-hq/saturn/pkg/retention"
	"custodia-hq/saturn/pkg/retention/actions"
	"custodia-hq/saturn/pkg/security/auth"
	"custodia-hq/saturn/pkg/vocabulary"
)

func actionsExecutor(repo document.Repository) *actions.Executor {
	return actions.NewExecutor(repo)
}

var (
	adminUser = auth.Principal{Name: "admin", Admin: true}
	plainUser = auth.Principal{Name: "jdoe"}
)

type testEnv struct {
	engine *Engine
	repo   *storage.MemoryRepository
	rules  *retention.MemoryRuleStore
	authz  *auth.Static
	audit  *audit.Memory
	bus    *events.Bus
	queue  *queue.Memory
	vocab  *vocabulary.Memory
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:  storage.NewMemoryRepository(),
		rules: retention.NewMemoryRuleStore(),
		authz: auth.NewStatic(),
		audit: audit.NewMemory(),
		bus:   events.NewBus(),
		queue: queue.NewMemory(),
		vocab: vocabulary.NewMemory(),
		clock: time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC),
	}
	env.engine = New(Config{
		Repo:       env.repo,
		Rules:      env.rules,
		Authorizer: env.authz,
		Executor:   actionsExecutor(env.repo),
		Bus:        env.bus,
		Audit:      env.audit,
		Vocabulary: env.vocab,
		Queue:      env.queue,
		Now:        func() time.Time { return env.clock },
	})
	return env
}

func (env *testEnv) addDoc(t *testing.T, doc *document.Document) {
	t.Helper()
	if err := env.repo.Save(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
}

func (env *testEnv) addRule(t *testing.T, rule *retention.Rule) {
	t.Helper()
	if err := env.rules.Put(rule); err != nil {
		t.Fatal(err)
	}
}

func (env *testEnv) getDoc(t *testing.T, id string) *document.Document {
	t.Helper()
	doc, err := env.repo.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func immediateRule(id string, flexible bool) *retention.Rule {
	return &retention.Rule{
		ID:                  id,
		Name:                id,
		ApplicationPolicy:   retention.ApplyManual,
		StartingPointPolicy: retention.StartImmediate,
		DurationYears:       1,
		MakeFlexibleRecords: flexible,
		Enabled:             true,
	}
}

func eventRule(id, event, value, expression string) *retention.Rule {
	return &retention.Rule{
		ID:                      id,
		Name:                    id,
		ApplicationPolicy:       retention.ApplyManual,
		StartingPointPolicy:     retention.StartEventBased,
		DurationDays:            30,
		StartingPointEvent:      event,
		StartingPointValue:      value,
		StartingPointExpression: expression,
		MakeFlexibleRecords:     true,
		Enabled:                 true,
	}
}

func fileDoc(id string) *document.Document {
	return &document.Document{ID: id, Type: "File", Properties: map[string]any{}}
}

func TestAttachImmediateRule(t *testing.T) {
	env := newTestEnv(t)
	rule := immediateRule("contracts-1y", true)
	rule.DurationYears = 0
	rule.DurationDays = 2
	rule.DurationMillis = 500
	env.addRule(t, rule)
	env.addDoc(t, fileDoc("doc-1"))

	rec, err := env.engine.AttachRule(context.Background(), adminUser, rule.ID, "doc-1")
	if err != nil {
		t.Fatalf("AttachRule() error = %v", err)
	}

	want := env.clock.AddDate(0, 0, 2).Add(500 * time.Millisecond)
	doc := env.getDoc(t, "doc-1")
	if !doc.Record {
		t.Error("document not marked record")
	}
	if doc.RetainUntil == nil || !doc.RetainUntil.Equal(want) {
		t.Errorf("RetainUntil = %v, want %v", doc.RetainUntil, want)
	}
	if rec.Kind() != retention.KindFlexible {
		t.Errorf("Kind() = %v, want flexible", rec.Kind())
	}
	if rec.RuleID() != rule.ID {
		t.Errorf("RuleID() = %q, want %q", rec.RuleID(), rule.ID)
	}
	if !doc.IsUnderRetentionOrLegalHold(env.clock) {
		t.Error("document not under retention after attach")
	}
}

func TestAttachAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*testEnv)
		user    auth.Principal
		wantErr bool
	}{
		{"admin", func(*testEnv) {}, adminUser, false},
		{"plain user", func(*testEnv) {}, plainUser, true},
		{"record manager", func(env *testEnv) {
			env.authz.AddRoleMember(auth.RecordManagerRole, "jdoe")
		}, plainUser, false},
		{"both capabilities", func(env *testEnv) {
			env.authz.Grant("jdoe", "doc-1", auth.CapMakeRecord)
			env.authz.Grant("jdoe", "doc-1", auth.CapSetRetention)
		}, plainUser, false},
		{"make-record only", func(env *testEnv) {
			env.authz.Grant("jdoe", "doc-1", auth.CapMakeRecord)
		}, plainUser, true},
		{"set-retention only", func(env *testEnv) {
			env.authz.Grant("jdoe", "doc-1", auth.CapSetRetention)
		}, plainUser, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addRule(t, immediateRule("r", true))
			env.addDoc(t, fileDoc("doc-1"))
			tt.setup(env)

			_, err := env.engine.AttachRule(context.Background(), tt.user, "r", "doc-1")
			if tt.wantErr {
				if _, ok := err.(*retention.NotAuthorizedError); !ok {
					t.Errorf("error = %v, want NotAuthorizedError", err)
				}
			} else if err != nil {
				t.Errorf("AttachRule() error = %v", err)
			}
		})
	}
}

func TestAttachPreconditions(t *testing.T) {
	env := newTestEnv(t)

	disabled := immediateRule("disabled", true)
	disabled.Enabled = false
	env.addRule(t, disabled)

	typed := immediateRule("notes-only", true)
	typed.DocTypes = []string{"Note"}
	env.addRule(t, typed)

	delayed := immediateRule("delayed", true)
	delayed.StartingPointPolicy = retention.StartAfterDelay
	env.addRule(t, delayed)

	env.addRule(t, immediateRule("ok", true))
	env.addDoc(t, fileDoc("doc-1"))

	ctx := context.Background()

	if _, err := env.engine.AttachRule(ctx, adminUser, "disabled", "doc-1"); err == nil {
		t.Error("disabled rule attached")
	} else if _, ok := err.(*retention.RuleDisabledError); !ok {
		t.Errorf("error = %v, want RuleDisabledError", err)
	}

	if _, err := env.engine.AttachRule(ctx, adminUser, "notes-only", "doc-1"); err == nil {
		t.Error("doc-type mismatch attached")
	} else if _, ok := err.(*retention.DocTypeRejectedError); !ok {
		t.Errorf("error = %v, want DocTypeRejectedError", err)
	}
	if env.getDoc(t, "doc-1").Record {
		t.Error("refused attach marked the document as a record")
	}

	if _, err := env.engine.AttachRule(ctx, adminUser, "delayed", "doc-1"); err == nil {
		t.Error("after-delay rule attached")
	} else if _, ok := err.(*retention.UnsupportedError); !ok {
		t.Errorf("error = %v, want UnsupportedError", err)
	}

	if _, err := env.engine.AttachRule(ctx, adminUser, "missing", "doc-1"); err == nil {
		t.Error("missing rule attached")
	} else if _, ok := err.(*retention.RuleNotFoundError); !ok {
		t.Errorf("error = %v, want RuleNotFoundError", err)
	}

	// First attach succeeds, second fails with AlreadyRetained regardless
	// of the rule's kind.
	if _, err := env.engine.AttachRule(ctx, adminUser, "ok", "doc-1"); err != nil {
		t.Fatalf("AttachRule() error = %v", err)
	}
	for _, ruleID := range []string{"ok", "notes-only"} {
		if _, err := env.engine.AttachRule(ctx, adminUser, ruleID, "doc-1"); err == nil {
			t.Errorf("second attach of %s succeeded", ruleID)
		} else if _, ok := err.(*retention.AlreadyRetainedError); !ok {
			t.Errorf("error = %v, want AlreadyRetainedError", err)
		}
	}
}

func TestAttachEventBasedSetsIndeterminate(t *testing.T) {
	env := newTestEnv(t)
	env.addRule(t, eventRule("on-end", "retention.contractEnd", "", ""))
	env.addDoc(t, fileDoc("doc-1"))

	rec, err := env.engine.AttachRule(context.Background(), adminUser, "on-end", "doc-1")
	if err != nil {
		t.Fatalf("AttachRule() error = %v", err)
	}
	if !rec.IsRetentionIndeterminate() {
		t.Error("retention not indeterminate after event-based attach")
	}
	if !rec.IsUnderRetentionOrLegalHold(env.clock.AddDate(100, 0, 0)) {
		t.Error("indeterminate retention not treated as under retention")
	}
}

func TestAttachMetadataBased(t *testing.T) {
	newRule := func() *retention.Rule {
		return &retention.Rule{
			ID:                  "md",
			ApplicationPolicy:   retention.ApplyManual,
			StartingPointPolicy: retention.StartMetadataBased,
			DurationDays:        10,
			MetadataXPath:       "dc:expired",
			MakeFlexibleRecords: true,
			Enabled:             true,
		}
	}

	t.Run("future date", func(t *testing.T) {
		env := newTestEnv(t)
		env.addRule(t, newRule())
		doc := fileDoc("doc-1")
		start := env.clock.AddDate(0, 0, -5)
		doc.Properties["dc:expired"] = start
		env.addDoc(t, doc)

		rec, err := env.engine.AttachRule(context.Background(), adminUser, "md", "doc-1")
		if err != nil {
			t.Fatalf("AttachRule() error = %v", err)
		}
		want := start.AddDate(0, 0, 10)
		got := rec.Document().RetainUntil
		if got == nil || !got.Equal(want) {
			t.Errorf("RetainUntil = %v, want %v", got, want)
		}
	})

	t.Run("null field makes record without retention", func(t *testing.T) {
		env := newTestEnv(t)
		env.addRule(t, newRule())
		doc := fileDoc("doc-1")
		doc.Properties["dc:expired"] = nil
		env.addDoc(t, doc)

		rec, err := env.engine.AttachRule(context.Background(), adminUser, "md", "doc-1")
		if err != nil {
			t.Fatalf("AttachRule() error = %v", err)
		}
		if !rec.IsRecord() {
			t.Error("document not a record")
		}
		if rec.Document().RetainUntil != nil {
			t.Errorf("RetainUntil = %v, want nil", rec.Document().RetainUntil)
		}
	})

	t.Run("past date makes record without retention", func(t *testing.T) {
		env := newTestEnv(t)
		env.addRule(t, newRule())
		doc := fileDoc("doc-1")
		doc.Properties["dc:expired"] = env.clock.AddDate(-1, 0, 0)
		env.addDoc(t, doc)

		rec, err := env.engine.AttachRule(context.Background(), adminUser, "md", "doc-1")
		if err != nil {
			t.Fatalf("AttachRule() error = %v", err)
		}
		if !rec.IsRecord() {
			t.Error("document not a record")
		}
		if rec.IsUnderRetentionOrLegalHold(env.clock) {
			t.Error("record under retention despite past computed end")
		}
	})

	t.Run("missing field", func(t *testing.T) {
		env := newTestEnv(t)
		env.addRule(t, newRule())
		env.addDoc(t, fileDoc("doc-1"))

		_, err := env.engine.AttachRule(context.Background(), adminUser, "md", "doc-1")
		if _, ok := err.(*retention.InvalidMetadataFieldError); !ok {
			t.Errorf("error = %v, want InvalidMetadataFieldError", err)
		}
	})

	t.Run("non-date field", func(t *testing.T) {
		env := newTestEnv(t)
		env.addRule(t, newRule())
		doc := fileDoc("doc-1")
		doc.Properties["dc:expired"] = "2026-01-01"
		env.addDoc(t, doc)

		_, err := env.engine.AttachRule(context.Background(), adminUser, "md", "doc-1")
		if _, ok := err.(*retention.InvalidMetadataFieldError); !ok {
			t.Errorf("error = %v, want InvalidMetadataFieldError", err)
		}
	})
}

func TestAttachRunsBeginActions(t *testing.T) {
	env := newTestEnv(t)
	rule := immediateRule("locking", true)
	rule.BeginActions = []string{"document.lock"}
	env.addRule(t, rule)
	env.addDoc(t, fileDoc("doc-1"))

	if _, err := env.engine.AttachRule(context.Background(), adminUser, "locking", "doc-1"); err != nil {
		t.Fatalf("AttachRule() error = %v", err)
	}
	if !env.getDoc(t, "doc-1").Locked {
		t.Error("begin action did not lock the document")
	}
}

func TestAttachFailedBeginActionRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.engine.exec.Register("explode", func(ctx context.Context, doc *document.Document) (*document.Document, error) {
		return nil, errors.New("explode")
	})
	rule := immediateRule("volatile", false)
	rule.BeginActions = []string{"document.lock", "explode"}
	env.addRule(t, rule)
	env.addDoc(t, fileDoc("doc-1"))

	_, err := env.engine.AttachRule(context.Background(), adminUser, "volatile", "doc-1")
	if _, ok := err.(*retention.ActionExecutionError); !ok {
		t.Fatalf("error = %v, want ActionExecutionError", err)
	}

	doc := env.getDoc(t, "doc-1")
	if doc.Record || doc.RuleID != "" || doc.Locked {
		t.Errorf("document not restored: Record=%v RuleID=%q Locked=%v",
			doc.Record, doc.RuleID, doc.Locked)
	}
	if doc.IsUnderRetentionOrLegalHold(env.clock) {
		t.Error("document left under retention after failed attach")
	}
}

func TestReattachKindMatrix(t *testing.T) {
	// An expired flexible record accepts any rule kind; an expired
	// enforced record never accepts a flexible rule.
	tests := []struct {
		name         string
		recordKind   retention.RecordKind
		ruleFlexible bool
		wantErr      bool
	}{
		{"expired flexible, flexible rule", retention.KindFlexible, true, false},
		{"expired flexible, enforced rule", retention.KindFlexible, false, false},
		{"expired enforced, flexible rule", retention.KindEnforced, true, true},
		{"expired enforced, enforced rule", retention.KindEnforced, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addRule(t, immediateRule("next", tt.ruleFlexible))

			doc := fileDoc("doc-1")
			doc.Record = true
			doc.Flexible = tt.recordKind == retention.KindFlexible
			doc.RuleID = "previous"
			expired := env.clock.AddDate(0, 0, -1)
			doc.RetainUntil = &expired
			env.addDoc(t, doc)

			rec, err := env.engine.AttachRule(context.Background(), adminUser, "next", "doc-1")
			if tt.wantErr {
				if _, ok := err.(*retention.RecordKindConflictError); !ok {
					t.Errorf("error = %v, want RecordKindConflictError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AttachRule() error = %v", err)
			}
			wantKind := retention.KindEnforced
			if tt.ruleFlexible {
				wantKind = retention.KindFlexible
			}
			if rec.Kind() != wantKind {
				t.Errorf("Kind() = %v, want %v (new rule's kind takes over)", rec.Kind(), wantKind)
			}
			if !rec.IsUnderRetentionOrLegalHold(env.clock) {
				t.Error("re-attach did not reset retention")
			}
		})
	}
}

func TestCanAttachRule(t *testing.T) {
	env := newTestEnv(t)
	env.addRule(t, immediateRule("r", true))
	disabled := immediateRule("off", true)
	disabled.Enabled = false
	env.addRule(t, disabled)
	env.addDoc(t, fileDoc("doc-1"))

	ctx := context.Background()
	if ok, err := env.engine.CanAttachRule(ctx, adminUser, "r", "doc-1"); err != nil || !ok {
		t.Errorf("CanAttachRule(valid) = %v, %v, want true, nil", ok, err)
	}
	if ok, err := env.engine.CanAttachRule(ctx, plainUser, "r", "doc-1"); err != nil || ok {
		t.Errorf("CanAttachRule(unauthorized) = %v, %v, want false, nil", ok, err)
	}
	if ok, err := env.engine.CanAttachRule(ctx, adminUser, "off", "doc-1"); err != nil || ok {
		t.Errorf("CanAttachRule(disabled) = %v, %v, want false, nil", ok, err)
	}
	if ok, err := env.engine.CanAttachRule(ctx, adminUser, "missing", "doc-1"); err != nil || ok {
		t.Errorf("CanAttachRule(missing rule) = %v, %v, want false, nil", ok, err)
	}

	// The probe never mutates.
	if env.getDoc(t, "doc-1").Record {
		t.Error("CanAttachRule marked the document as a record")
	}
}

// recordingRepo captures the options passed to Save.
type recordingRepo struct {
	document.Repository
	lastOpts document.SaveOptions
}

func (r *recordingRepo) Save(ctx context.Context, doc *document.Document, opts ...document.SaveOption) error {
	r.lastOpts = document.SaveOptions{}
	for _, o := range opts {
		o(&r.lastOpts)
	}
	return r.Repository.Save(ctx, doc, opts...)
}

func TestUnattachRule(t *testing.T) {
	env := newTestEnv(t)
	recording := &recordingRepo{Repository: env.repo}
	eng := New(Config{
		Repo:       recording,
		Rules:      env.rules,
		Authorizer: env.authz,
		Executor:   actionsExecutor(env.repo),
		Now:        func() time.Time { return env.clock },
	})
	env.addRule(t, immediateRule("r", true))
	env.addDoc(t, fileDoc("doc-1"))

	ctx := context.Background()
	if _, err := eng.AttachRule(ctx, adminUser, "r", "doc-1"); err != nil {
		t.Fatalf("AttachRule() error = %v", err)
	}

	if _, err := eng.UnattachRule(ctx, plainUser, "doc-1"); err == nil {
		t.Error("unauthorized unattach succeeded")
	} else if _, ok := err.(*retention.NotAuthorizedError); !ok {
		t.Errorf("error = %v, want NotAuthorizedError", err)
	}

	rec, err := eng.UnattachRule(ctx, adminUser, "doc-1")
	if err != nil {
		t.Fatalf("UnattachRule() error = %v", err)
	}
	if rec.IsRecord() {
		t.Error("record marking not cleared")
	}
	if rec.RuleID() != "" {
		t.Errorf("RuleID = %q, want empty", rec.RuleID())
	}
	if rec.Document().RetainUntil != nil {
		t.Errorf("RetainUntil = %v, want nil", rec.Document().RetainUntil)
	}
	if !recording.lastOpts.DisableSideEffects {
		t.Error("unattach save did not disable side effects")
	}
}

func TestUnattachEnforcedRejected(t *testing.T) {
	env := newTestEnv(t)
	env.addRule(t, immediateRule("enforced", false))
	env.addDoc(t, fileDoc("doc-1"))
	env.addDoc(t, fileDoc("doc-2"))

	ctx := context.Background()
	if _, err := env.engine.AttachRule(ctx, adminUser, "enforced", "doc-1"); err != nil {
		t.Fatalf("AttachRule() error = %v", err)
	}

	// Enforced records reject unattach even for admins.
	if _, err := env.engine.UnattachRule(ctx, adminUser, "doc-1"); err == nil {
		t.Error("enforced record unattached")
	} else if _, ok := err.(*retention.NotFlexibleRecordError); !ok {
		t.Errorf("error = %v, want NotFlexibleRecordError", err)
	}

	// Plain documents are not flexible records either.
	if _, err := env.engine.UnattachRule(ctx, adminUser, "doc-2"); err == nil {
		t.Error("non-record unattached")
	} else if _, ok := err.(*retention.NotFlexibleRecordError); !ok {
		t.Errorf("error = %v, want NotFlexibleRecordError", err)
	}
}

func TestFireRetentionEvent(t *testing.T) {
	env := newTestEnv(t)
	var published []events.Event
	env.bus.Subscribe(func(e events.Event) { published = append(published, e) })

	ctx := context.Background()

	if err := env.engine.FireRetentionEvent(ctx, plainUser, "retention.contractEnd", "x", false); err == nil {
		t.Error("unauthorized fire succeeded")
	} else if _, ok := err.(*retention.NotAuthorizedError); !ok {
		t.Errorf("error = %v, want NotAuthorizedError", err)
	}

	for _, bad := range []string{" leading-space", "semi;colon", "new\nline", string(make([]byte, 200))} {
		if err := env.engine.FireRetentionEvent(ctx, adminUser, "retention.contractEnd", bad, false); err == nil {
			t.Errorf("input %q accepted", bad)
		} else if _, ok := err.(*retention.InvalidInputError); !ok {
			t.Errorf("error = %v, want InvalidInputError", err)
		}
	}

	if err := env.engine.FireRetentionEvent(ctx, adminUser, "retention.contractEnd", "contract 42", true); err != nil {
		t.Fatalf("FireRetentionEvent() error = %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	ev := published[0]
	if ev.Name != "retention.contractEnd" || ev.Category != events.CategoryRetention || ev.Input != "contract 42" {
		t.Errorf("event = %+v", ev)
	}
	entries := env.audit.Entries()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].EventID != "retention.contractEnd" || entries[0].Comment != "contract 42" {
		t.Errorf("audit entry = %+v", entries[0])
	}

	// Empty input skips validation; audit=false appends nothing.
	if err := env.engine.FireRetentionEvent(ctx, adminUser, "retention.approved", "", false); err != nil {
		t.Fatalf("FireRetentionEvent() error = %v", err)
	}
	if len(env.audit.Entries()) != 1 {
		t.Error("unaudited fire appended an audit entry")
	}
}

func attachEventBased(t *testing.T, env *testEnv, rule *retention.Rule) {
	t.Helper()
	env.addRule(t, rule)
	env.addDoc(t, fileDoc("doc-1"))
	if _, err := env.engine.AttachRule(context.Background(), adminUser, rule.ID, "doc-1"); err != nil {
		t.Fatalf("AttachRule() error = %v", err)
	}
}

func TestApplyEventBasedRulesValueMatch(t *testing.T) {
	env := newTestEnv(t)
	attachEventBased(t, env, eventRule("on-end", "retention.contractEnd", "bar", ""))
	ctx := context.Background()

	// Wrong input leaves retention indeterminate.
	matched, err := env.engine.ApplyEventBasedRules(ctx, "doc-1", "retention.contractEnd", "baz")
	if err != nil {
		t.Fatalf("ApplyEventBasedRules() error = %v", err)
	}
	if matched {
		t.Error("mismatched input matched")
	}
	if !env.getDoc(t, "doc-1").IsRetentionIndeterminate() {
		t.Error("retention no longer indeterminate after non-match")
	}

	// Wrong event name is a no-op.
	if matched, _ := env.engine.ApplyEventBasedRules(ctx, "doc-1", "retention.other", "bar"); matched {
		t.Error("mismatched event name matched")
	}

	// Matching input resolves to now + duration.
	matched, err = env.engine.ApplyEventBasedRules(ctx, "doc-1", "retention.contractEnd", "bar")
	if err != nil {
		t.Fatalf("ApplyEventBasedRules() error = %v", err)
	}
	if !matched {
		t.Fatal("matching input did not match")
	}
	doc := env.getDoc(t, "doc-1")
	want := env.clock.AddDate(0, 0, 30)
	if doc.RetainUntil == nil || !doc.RetainUntil.Equal(want) {
		t.Errorf("RetainUntil = %v, want %v", doc.RetainUntil, want)
	}
}

func TestApplyEventBasedRulesExpression(t *testing.T) {
	env := newTestEnv(t)
	rule := eventRule("expr", "retention.contractEnd", "",
		`eventInput.startsWith("contract") && document.type == "File"`)
	attachEventBased(t, env, rule)
	ctx := context.Background()

	if matched, err := env.engine.ApplyEventBasedRules(ctx, "doc-1", "retention.contractEnd", "order 9"); err != nil || matched {
		t.Errorf("non-matching expression = %v, %v, want false, nil", matched, err)
	}
	matched, err := env.engine.ApplyEventBasedRules(ctx, "doc-1", "retention.contractEnd", "contract 9")
	if err != nil {
		t.Fatalf("ApplyEventBasedRules() error = %v", err)
	}
	if !matched {
		t.Error("matching expression did not match")
	}
}

func TestApplyEventBasedRulesMalformedExpression(t *testing.T) {
	env := newTestEnv(t)
	attachEventBased(t, env, eventRule("broken", "retention.contractEnd", "",
		`eventInput ==`))

	matched, err := env.engine.ApplyEventBasedRules(context.Background(), "doc-1", "retention.contractEnd", "x")
	if err == nil {
		t.Fatal("ApplyEventBasedRules() error = nil, want compile error")
	}
	if matched {
		t.Error("malformed expression reported a match")
	}
	if !env.getDoc(t, "doc-1").IsRetentionIndeterminate() {
		t.Error("retention no longer indeterminate after failed evaluation")
	}
}

func TestApplyEventBasedRulesEmptyExpressionMatchesAny(t *testing.T) {
	env := newTestEnv(t)
	attachEventBased(t, env, eventRule("any", "retention.contractEnd", "", ""))

	matched, err := env.engine.ApplyEventBasedRules(context.Background(), "doc-1", "retention.contractEnd", "whatever")
	if err != nil {
		t.Fatalf("ApplyEventBasedRules() error = %v", err)
	}
	if !matched {
		t.Error("empty expression did not match")
	}
}

func TestApplyEventBasedRulesNoOps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Not a record.
	env.addDoc(t, fileDoc("plain"))
	if matched, err := env.engine.ApplyEventBasedRules(ctx, "plain", "e", "x"); err != nil || matched {
		t.Errorf("non-record = %v, %v, want false, nil", matched, err)
	}

	// Record with an immediate (non event-based) rule.
	env.addRule(t, immediateRule("imm", true))
	env.addDoc(t, fileDoc("doc-imm"))
	if _, err := env.engine.AttachRule(ctx, adminUser, "imm", "doc-imm"); err != nil {
		t.Fatal(err)
	}
	if matched, err := env.engine.ApplyEventBasedRules(ctx, "doc-imm", "e", "x"); err != nil || matched {
		t.Errorf("immediate rule = %v, %v, want false, nil", matched, err)
	}

	// Record whose rule was deleted: dangling weak reference, no error.
	attachEventBased(t, env, eventRule("gone", "retention.contractEnd", "bar", ""))
	env.rules.Delete("gone")
	if matched, err := env.engine.ApplyEventBasedRules(ctx, "doc-1", "retention.contractEnd", "bar"); err != nil || matched {
		t.Errorf("dangling rule = %v, %v, want false, nil", matched, err)
	}
}

func TestApplyEventBasedRulesExpiredTriggersEndActions(t *testing.T) {
	env := newTestEnv(t)
	rule := eventRule("on-end", "retention.contractEnd", "bar", "")
	rule.EndActions = []string{"document.trash"}
	env.addRule(t, rule)

	doc := fileDoc("doc-1")
	doc.Record = true
	doc.Flexible = true
	doc.RuleID = "on-end"
	expired := env.clock.AddDate(0, 0, -1)
	doc.RetainUntil = &expired
	env.addDoc(t, doc)

	matched, err := env.engine.ApplyEventBasedRules(context.Background(), "doc-1", "retention.contractEnd", "bar")
	if err != nil {
		t.Fatalf("ApplyEventBasedRules() error = %v", err)
	}
	if matched {
		t.Error("expired record re-triggered")
	}
	if !env.getDoc(t, "doc-1").Trashed {
		t.Error("expiration processing did not run end actions")
	}
}

func TestProceedRetentionExpired(t *testing.T) {
	env := newTestEnv(t)
	rule := immediateRule("trashing", true)
	rule.EndActions = []string{"document.trash"}
	env.addRule(t, rule)

	doc := fileDoc("doc-1")
	doc.Record = true
	doc.Flexible = true
	doc.RuleID = "trashing"
	doc.Locked = true
	expired := env.clock.AddDate(0, 0, -1)
	doc.RetainUntil = &expired
	env.addDoc(t, doc)

	var published []events.Event
	env.bus.Subscribe(func(e events.Event) { published = append(published, e) })

	if err := env.engine.ProceedRetentionExpired(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProceedRetentionExpired() error = %v", err)
	}
	got := env.getDoc(t, "doc-1")
	if !got.Trashed {
		t.Error("end action did not trash the document")
	}
	if got.Locked {
		t.Error("trash action did not remove the lock first")
	}
	if len(published) != 1 || published[0].Name != EventRetentionExpired {
		t.Errorf("published = %+v, want one %s event", published, EventRetentionExpired)
	}

	// Idempotent by convention: a second invocation must not fail.
	if err := env.engine.ProceedRetentionExpired(context.Background(), "doc-1"); err != nil {
		t.Errorf("second ProceedRetentionExpired() error = %v", err)
	}
}

func TestEvalRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Empty map never schedules work.
	if err := env.engine.EvalRules(ctx, nil); err != nil {
		t.Fatalf("EvalRules(nil) error = %v", err)
	}
	if n, _ := env.queue.Depth(ctx); n != 0 {
		t.Errorf("Depth() = %d after empty call, want 0", n)
	}

	err := env.engine.EvalRules(ctx, map[string][]string{
		"doc-1": {"retention.contractEnd"},
		"doc-2": {"retention.contractEnd", "retention.approved"},
	})
	if err != nil {
		t.Fatalf("EvalRules() error = %v", err)
	}
	if n, _ := env.queue.Depth(ctx); n != 1 {
		t.Fatalf("Depth() = %d, want one batched task per call", n)
	}

	task, _ := env.queue.Claim(ctx)
	if task.Kind != queue.KindEvalDocs {
		t.Errorf("task.Kind = %q, want %q", task.Kind, queue.KindEvalDocs)
	}
	docs, ok := task.Params["docs"].(map[string]any)
	if !ok || len(docs) != 2 {
		t.Errorf("task docs = %v, want two entries", task.Params["docs"])
	}
}

func TestAcceptedEventsCache(t *testing.T) {
	env := newTestEnv(t)
	env.vocab.Add(vocabulary.Entry{ID: "retention.contractEnd"})
	env.vocab.Add(vocabulary.Entry{ID: "retention.obsolete", Obsolete: true})
	ctx := context.Background()

	got, err := env.engine.AcceptedEvents(ctx)
	if err != nil {
		t.Fatalf("AcceptedEvents() error = %v", err)
	}
	if len(got) != 1 || got[0] != "retention.contractEnd" {
		t.Errorf("AcceptedEvents() = %v", got)
	}

	// Additions are invisible until Invalidate.
	env.vocab.Add(vocabulary.Entry{ID: "retention.approved"})
	got, _ = env.engine.AcceptedEvents(ctx)
	if len(got) != 1 {
		t.Errorf("cached AcceptedEvents() = %v, want stale single entry", got)
	}

	env.engine.Invalidate()
	got, _ = env.engine.AcceptedEvents(ctx)
	if len(got) != 2 {
		t.Errorf("AcceptedEvents() after Invalidate = %v, want 2 entries", got)
	}
}

func TestSetLegalHold(t *testing.T) {
	env := newTestEnv(t)
	env.addDoc(t, fileDoc("doc-1"))
	ctx := context.Background()

	if _, err := env.engine.SetLegalHold(ctx, plainUser, "doc-1", true, "litigation"); err == nil {
		t.Error("unauthorized hold succeeded")
	}

	rec, err := env.engine.SetLegalHold(ctx, adminUser, "doc-1", true, "litigation")
	if err != nil {
		t.Fatalf("SetLegalHold() error = %v", err)
	}
	if !rec.IsUnderRetentionOrLegalHold(env.clock) {
		t.Error("held document not under retention or hold")
	}
	if env.getDoc(t, "doc-1").HoldDescription != "litigation" {
		t.Error("hold description not recorded")
	}

	// A held document refuses rule attachment.
	env.addRule(t, immediateRule("r", true))
	if _, err := env.engine.AttachRule(ctx, adminUser, "r", "doc-1"); err == nil {
		t.Error("attach onto held document succeeded")
	} else if _, ok := err.(*retention.AlreadyRetainedError); !ok {
		t.Errorf("error = %v, want AlreadyRetainedError", err)
	}

	rec, err = env.engine.SetLegalHold(ctx, adminUser, "doc-1", false, "")
	if err != nil {
		t.Fatalf("SetLegalHold(lift) error = %v", err)
	}
	if rec.IsUnderRetentionOrLegalHold(env.clock) {
		t.Error("document still held after lift")
	}
	if env.getDoc(t, "doc-1").HoldDescription != "" {
		t.Error("hold description not cleared on lift")
	}
}

func TestRetain(t *testing.T) {
	env := newTestEnv(t)
	env.addDoc(t, fileDoc("doc-1"))
	env.addDoc(t, fileDoc("doc-2"))
	ctx := context.Background()

	until := env.clock.AddDate(1, 0, 0)
	rec, err := env.engine.Retain(ctx, adminUser, "doc-1", &until)
	if err != nil {
		t.Fatalf("Retain() error = %v", err)
	}
	if rec.Kind() != retention.KindEnforced {
		t.Errorf("Kind() = %v, want enforced", rec.Kind())
	}
	if got := rec.Document().RetainUntil; got == nil || !got.Equal(until) {
		t.Errorf("RetainUntil = %v, want %v", got, until)
	}
	if _, err := env.engine.Retain(ctx, adminUser, "doc-1", &until); err == nil {
		t.Error("second retain succeeded")
	}

	// Nil end means indeterminate.
	rec, err = env.engine.Retain(ctx, adminUser, "doc-2", nil)
	if err != nil {
		t.Fatalf("Retain(nil) error = %v", err)
	}
	if !rec.IsRetentionIndeterminate() {
		t.Error("nil until did not yield indeterminate retention")
	}
}

func TestRetainUntilSurvivesUnrelatedSaves(t *testing.T) {
	env := newTestEnv(t)
	env.addRule(t, immediateRule("r", true))
	env.addDoc(t, fileDoc("doc-1"))
	ctx := context.Background()

	if _, err := env.engine.AttachRule(ctx, adminUser, "r", "doc-1"); err != nil {
		t.Fatal(err)
	}
	want := *env.getDoc(t, "doc-1").RetainUntil

	for i := 0; i < 5; i++ {
		doc := env.getDoc(t, "doc-1")
		doc.Title = "edit"
		if err := env.repo.Save(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}
	got := env.getDoc(t, "doc-1").RetainUntil
	if got == nil || !got.Equal(want) {
		t.Errorf("RetainUntil = %v after unrelated saves, want %v", got, want)
	}
}
