package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "github.com/sahilk21/RegLink/models"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func TestEvaluateCompliance_CriticalBreach(t *testing.T) {
	patches := gomonkey.ApplyFunc(time.Now, func() time.Time {
		return FixedTime
	})
	defer patches.Reset()
	t.Setenv("SMTP_HOST", "")

	mockDB := new(MockDB)
	rec := &createRecorder{}
	mockDB.On("Create", mock.Anything).Run(rec.record).Return(mockDB)
	mockDB.On("Model", mock.Anything).Return(mockDB)
	mockDB.On("Where", mock.Anything, mock.Anything).Return(mockDB)
	mockDB.On("Updates", mock.Anything).Return(mockDB)
	mockDB.On("Error").Return(nil)
	mockDB.On("RowsAffected").Return(int64(1))

	service := &FilingService{db: mockDB}
	sub := SubmissionInput{
		EntityID:     "entity-1",
		Jurisdiction: "federal",
		Data:         json.RawMessage(`{"tier1_ratio": 0.05, "total_capital_ratio": 0.09, "liquidity_coverage_ratio": 1.2}`),
	}

	result, err := service.EvaluateCompliance(sub, "analyst@osfi.ca")
	assert.NoError(t, err)
	assert.Equal(t, "non_compliant", result.OverallStatus)
	assert.Len(t, result.TriggeredFlags, 1)

	flag := result.TriggeredFlags[0]
	assert.Equal(t, "capital_inadequacy", flag.RuleType)
	assert.Equal(t, "critical", flag.Severity)
	assert.True(t, flag.EscalationRequired)
	assert.Equal(t, result.CheckID, flag.CheckID)
	assert.Equal(t, "Tier 1 capital ratio below 6% regulatory minimum; Total capital ratio below 10% regulatory minimum", flag.Message)

	var hits []conditionHit
	assert.NoError(t, json.Unmarshal(flag.ConditionsMet, &hits))
	assert.Len(t, hits, 2)

	assert.Equal(t, []string{"escalated capital_inadequacy to OSFI (urgent)"}, result.ImmediateActions)

	// The escalation spawns a joint_investigation workflow; tally what got
	// persisted across the whole evaluation.
	counts := map[string]int{}
	var check *model.ComplianceCheck
	var escalation *model.Escalation
	for _, c := range rec.created {
		switch v := c.(type) {
		case *model.ComplianceFlag:
			counts["flag"]++
		case *model.Escalation:
			counts["escalation"]++
			escalation = v
		case *model.Notification:
			counts["notification"]++
		case *model.WorkflowInstance:
			counts["instance"]++
		case *model.WorkflowStage:
			counts["stage"]++
		case *model.WorkflowAction:
			counts["action"]++
		case *model.ComplianceCheck:
			counts["check"]++
			check = v
		}
	}
	assert.Equal(t, 1, counts["flag"])
	assert.Equal(t, 1, counts["escalation"])
	assert.Equal(t, 1, counts["instance"])
	assert.Equal(t, 6, counts["stage"])
	assert.Equal(t, 1, counts["action"])
	assert.Equal(t, 3, counts["notification"])
	assert.Equal(t, 1, counts["check"])

	assert.Equal(t, "OSFI", escalation.AssignedAgency)
	assert.Equal(t, "urgent", escalation.Priority)
	assert.Equal(t, "pending", escalation.Status)

	assert.Equal(t, result.CheckID, check.ID)
	assert.Equal(t, 6, check.RulesChecked)
	assert.Equal(t, 1, check.FlagsTriggered)
	assert.Equal(t, "non_compliant", check.OverallStatus)
	mockDB.AssertExpectations(t)
}

func TestEvaluateCompliance_MonitoringOnly(t *testing.T) {
	patches := gomonkey.ApplyFunc(time.Now, func() time.Time {
		return FixedTime
	})
	defer patches.Reset()

	mockDB := new(MockDB)
	rec := &createRecorder{}
	mockDB.On("Create", mock.Anything).Run(rec.record).Return(mockDB)
	mockDB.On("Error").Return(nil)

	service := &FilingService{db: mockDB}
	sub := SubmissionInput{
		EntityID:     "entity-2",
		Jurisdiction: "ON",
		Data: json.RawMessage(`{
			"tier1_ratio": 0.08, "total_capital_ratio": 0.12,
			"liquidity_coverage_ratio": 1.1, "consumer_complaints": 150
		}`),
	}

	result, err := service.EvaluateCompliance(sub, "officer@bank.ca")
	assert.NoError(t, err)
	assert.Equal(t, "monitoring_required", result.OverallStatus)
	assert.Len(t, result.TriggeredFlags, 1)
	assert.Equal(t, "operational_risk", result.TriggeredFlags[0].RuleType)
	assert.False(t, result.TriggeredFlags[0].EscalationRequired)
	assert.Empty(t, result.ImmediateActions)

	// Medium severity: no escalation, no workflow, no notification.
	for _, c := range rec.created {
		switch c.(type) {
		case *model.Escalation, *model.WorkflowInstance, *model.Notification:
			t.Fatalf("unexpected persisted object %T", c)
		}
	}
}

func TestEvaluateCompliance_CleanSubmission(t *testing.T) {
	mockDB := new(MockDB)
	rec := &createRecorder{}
	mockDB.On("Create", mock.Anything).Run(rec.record).Return(mockDB)
	mockDB.On("Error").Return(nil)

	service := &FilingService{db: mockDB}
	sub := SubmissionInput{
		EntityID:     "entity-3",
		Jurisdiction: "federal",
		Data: json.RawMessage(`{
			"tier1_ratio": 0.09, "total_capital_ratio": 0.14,
			"liquidity_coverage_ratio": 1.3
		}`),
	}

	result, err := service.EvaluateCompliance(sub, "officer@bank.ca")
	assert.NoError(t, err)
	assert.Equal(t, "compliant", result.OverallStatus)
	assert.Empty(t, result.TriggeredFlags)

	// Only the summarizing check row is written.
	assert.Len(t, rec.created, 1)
	check, ok := rec.created[0].(*model.ComplianceCheck)
	assert.True(t, ok)
	assert.Equal(t, 0, check.FlagsTriggered)
}

func TestEvaluateCompliance_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		sub  SubmissionInput
	}{
		{
			name: "Missing entity",
			sub:  SubmissionInput{Data: json.RawMessage(`{}`)},
		},
		{
			name: "Malformed payload",
			sub:  SubmissionInput{EntityID: "entity-1", Jurisdiction: "ON", Data: json.RawMessage(`{not json`)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := new(MockDB)
			service := &FilingService{db: mockDB}
			_, err := service.EvaluateCompliance(tt.sub, "someone")
			assert.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			mockDB.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestComplianceScore(t *testing.T) {
	tests := []struct {
		name                    string
		total, active, critical int
		want                    float64
	}{
		{"Clean entity", 0, 0, 0, 100},
		{"Few active flags", 3, 2, 0, 84},
		{"Critical flags bite hard", 3, 2, 1, 69},
		{"History penalty capped at 30", 40, 0, 0, 70},
		{"Clamped at zero", 40, 10, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComplianceScore(tt.total, tt.active, tt.critical))
		})
	}
}

func TestGetEntityComplianceHistory(t *testing.T) {
	mockDB := new(MockDB)
	mockDB.On("Where", "entity_id = ?", []interface{}{"entity-1"}).Return(mockDB)
	mockDB.On("Order", "created_at desc").Return(mockDB)
	mockDB.On("Find", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			flags := args.Get(0).(*[]model.ComplianceFlag)
			*flags = []model.ComplianceFlag{
				{ID: "f1", Severity: "critical", Status: "active"},
				{ID: "f2", Severity: "medium", Status: "active"},
				{ID: "f3", Severity: "high", Status: "resolved"},
			}
		}).
		Return(mockDB)
	mockDB.On("Error").Return(nil)

	service := &FilingService{db: mockDB}
	history, err := service.GetEntityComplianceHistory("entity-1")
	assert.NoError(t, err)
	assert.Len(t, history.Flags, 3)
	assert.Equal(t, 3, history.Summary["total_flags"])
	assert.Equal(t, 2, history.Summary["active_flags"])
	assert.Equal(t, 1, history.Summary["critical_flags"])
	// 100 - 5*2 - 15*1 - 2*3
	assert.Equal(t, 69.0, history.Summary["compliance_score"])
	mockDB.AssertExpectations(t)
}

func TestUpdateFlagStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		setup    func(m *MockDB)
		wantKind string
	}{
		{
			name:   "Resolve active flag completes escalations",
			status: "resolved",
			setup: func(m *MockDB) {
				m.On("First", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						flag := args.Get(0).(*model.ComplianceFlag)
						*flag = model.ComplianceFlag{ID: "flag-1", Status: "active", Severity: "high"}
					}).
					Return(m)
				m.On("Model", mock.Anything).Return(m)
				m.On("Where", mock.Anything, mock.Anything).Return(m)
				m.On("Updates", mock.Anything).Return(m)
				m.On("Error").Return(nil)
				m.On("RowsAffected").Return(int64(1))
			},
		},
		{
			name:     "Unsupported status",
			status:   "dismissed",
			setup:    func(m *MockDB) {},
			wantKind: KindValidation,
		},
		{
			name:   "Flag not found",
			status: "resolved",
			setup: func(m *MockDB) {
				m.On("First", mock.Anything, mock.Anything).Return(m)
				m.On("Error").Return(gorm.ErrRecordNotFound)
			},
			wantKind: KindNotFound,
		},
		{
			name:   "Already resolved",
			status: "resolved",
			setup: func(m *MockDB) {
				m.On("First", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						flag := args.Get(0).(*model.ComplianceFlag)
						*flag = model.ComplianceFlag{ID: "flag-1", Status: "resolved"}
					}).
					Return(m)
				m.On("Error").Return(nil)
			},
			wantKind: KindStateConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patches := gomonkey.ApplyFunc(time.Now, func() time.Time {
				return FixedTime
			})
			defer patches.Reset()

			mockDB := new(MockDB)
			tt.setup(mockDB)
			service := &FilingService{db: mockDB}
			flag, err := service.UpdateFlagStatus("flag-1", tt.status, "capital restored", "supervisor@osfi.ca")
			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "resolved", flag.Status)
			assert.Equal(t, "capital restored", flag.ResolutionNotes)
			assert.Equal(t, "supervisor@osfi.ca", flag.ResolvedBy)
			assert.NotNil(t, flag.ResolvedAt)
		})
	}
}

func TestGetAgencyDashboard(t *testing.T) {
	patches := gomonkey.ApplyFunc(time.Now, func() time.Time {
		return FixedTime
	})
	defer patches.Reset()

	mockDB := new(MockDB)
	// The flag read is narrowed to the rule types that can route to OSFI.
	mockDB.On("Where", "status = ? AND rule_type IN ?",
		[]interface{}{"active", []string{"capital_inadequacy", "filing_timeliness", "liquidity_shortfall", "operational_risk"}}).
		Return(mockDB)
	mockDB.On("Where", mock.Anything, mock.Anything).Return(mockDB)
	mockDB.On("Order", mock.Anything).Return(mockDB)
	mockDB.On("Select", "jurisdiction", mock.Anything).Return(mockDB)
	mockDB.On("Find", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			switch dest := args.Get(0).(type) {
			case *[]model.ComplianceFlag:
				*dest = []model.ComplianceFlag{
					{ID: "f1", EntityID: "e1", RuleType: "capital_inadequacy", Severity: "critical", Status: "active", CreatedAt: FixedTime},
					{ID: "f2", EntityID: "e2", RuleType: "conduct_breach", Severity: "high", Status: "active", CreatedAt: FixedTime},
				}
			case *[]model.Escalation:
				*dest = []model.Escalation{{ID: "esc1", AssignedAgency: "OSFI", Priority: "urgent", Status: "pending"}}
			}
		}).
		Return(mockDB)
	mockDB.On("First", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			entity := args.Get(0).(*model.Entity)
			entity.Jurisdiction = "federal"
		}).
		Return(mockDB)
	mockDB.On("Error").Return(nil)

	service := &FilingService{db: mockDB}
	dash, err := service.GetAgencyDashboard("OSFI")
	assert.NoError(t, err)
	// conduct_breach routes to FCAC and must not appear in the OSFI view.
	assert.Len(t, dash.CriticalFlags, 1)
	assert.Equal(t, "f1", dash.CriticalFlags[0].ID)
	assert.Empty(t, dash.HighPriorityFlags)
	assert.Equal(t, 1, dash.Trends["critical"])
	assert.Equal(t, 0, dash.Trends["high"])
	assert.Len(t, dash.PendingEscalations, 1)
	mockDB.AssertExpectations(t)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validationf("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFoundf("missing")))
	assert.Equal(t, KindStateConflict, KindOf(Conflictf("wrong state")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	wrapped := internalErr("store failed", gorm.ErrInvalidDB)
	assert.True(t, errors.Is(wrapped, gorm.ErrInvalidDB))
}

func TestNumericField(t *testing.T) {
	data := map[string]interface{}{
		"tier1_ratio":  0.05,
		"lcr":          "1.25",
		"period":       "2026-Q1",
		"restated":     true,
		"total_assets": nil,
	}
	tests := []struct {
		name  string
		field string
		want  float64
	}{
		{"json number passes through", "tier1_ratio", 0.05},
		{"numeric string is parsed", "lcr", 1.25},
		{"non-numeric string coerces to zero", "period", 0},
		{"non-numeric type coerces to zero", "restated", 0},
		{"null coerces to zero", "total_assets", 0},
		{"absent field coerces to zero", "missing", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numericField(data, tt.field))
		})
	}
}
