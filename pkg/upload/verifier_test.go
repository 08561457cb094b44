package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

func goodRecord(department, role string) model.StatisticsRecord {
	return model.StatisticsRecord{
		Department: department, Role: role,
		Count: 30, RealDataCount: 10, SyntheticDataCount: 20,
		MinSalary: 60000, P10: 65000, P25: 70000, Median: 80000,
		P75: 90000, P90: 95000, MaxSalary: 120000,
		Mean: 81000, StdDev: 9000,
	}
}

func issueTypes(issues []IntegrityIssue) []string {
	types := make([]string, len(issues))
	for i, issue := range issues {
		types[i] = issue.IssueType
	}
	return types
}

func TestVerifyRecordsClean(t *testing.T) {
	v := NewVerifier(zap.NewNop())
	issues := v.VerifyRecords([]model.StatisticsRecord{
		goodRecord("Finance", "Associate"),
		goodRecord("Finance", "Manager"),
	})
	assert.Empty(t, issues)
}

func TestVerifyRecordsFindsIssues(t *testing.T) {
	unordered := goodRecord("Finance", "Associate")
	unordered.P75 = 50000

	unbalanced := goodRecord("Sales", "Manager")
	unbalanced.SyntheticDataCount = 5

	v := NewVerifier(zap.NewNop())
	issues := v.VerifyRecords([]model.StatisticsRecord{
		unordered,
		unbalanced,
		goodRecord("Finance", "Associate"),
	})

	assert.Equal(t, []string{IssueUnordered, IssueUnbalanced, IssueDuplicatePair}, issueTypes(issues))
	assert.Equal(t, "Sales", issues[1].Department)
	assert.Contains(t, issues[1].Description, "real 10 + synthetic 5 != count 30")
}

func TestVerifyAdjusted(t *testing.T) {
	ok := model.AdjustedRecord{StatisticsRecord: goodRecord("Finance", "Associate"), Scaled: [6]int{1, 2, 3, 4, 5, 6}}
	negative := model.AdjustedRecord{StatisticsRecord: goodRecord("Sales", "Manager"), Scaled: [6]int{1, 2, -3, 4, 5, 6}}

	v := NewVerifier(zap.NewNop())
	assert.Empty(t, v.VerifyAdjusted([]model.AdjustedRecord{ok}))

	issues := v.VerifyAdjusted([]model.AdjustedRecord{ok, negative})
	assert.Equal(t, []string{IssueNegativeScaled}, issueTypes(issues))
	assert.Equal(t, "Company_Scaled_Median is -3", issues[0].Description)
}

func TestVerificationReport(t *testing.T) {
	report := &VerificationReport{RowCountMatches: true}
	assert.True(t, report.Verified())

	report.IntegrityIssues = []IntegrityIssue{{IssueType: IssueDuplicatePair}}
	assert.False(t, report.Verified())

	assert.False(t, (&VerificationReport{}).Verified())
}
