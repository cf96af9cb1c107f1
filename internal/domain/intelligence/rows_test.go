package intelligence

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeta() Meta {
	return Meta{
		InteractionID:        uuid.New(),
		TenantID:             uuid.New(),
		PersonaID:            uuid.New(),
		TraceID:              uuid.New().String(),
		InteractionType:      "note",
		InteractionTimestamp: time.Now().UTC(),
		Source:               "openai:gpt-4o",
	}
}

func testAnalysis() *Analysis {
	return &Analysis{
		Summaries: Summaries{
			Title:     "Quarterly sync with Acme",
			Headline:  "Acme is evaluating competitors but remains committed.",
			Brief:     "Para one.\n\nPara two.",
			Detailed:  "Full detailed summary with every point covered.",
			Spotlight: "Renewal is at risk without SSO.",
		},
		ActionItems: []ActionItem{
			{Description: "Send pricing deck", Owner: "Sam", DueDate: "2025-07-01"},
			{Description: "Schedule security review"},
		},
		Decisions: []Decision{
			{Decision: "Move to annual billing", Rationale: "Simplifies procurement"},
		},
		Risks: []Risk{
			{Risk: "Competitor trial running", Severity: RiskSeverityHigh, Mitigation: "Exec outreach"},
		},
		KeyTakeaways:       []string{"Champion is supportive"},
		ProductFeedback:    []ProductFeedback{{Text: "Export to CSV is slow"}},
		MarketIntelligence: []MarketIntelligence{{Text: "Rival launched EU region"}},
	}
}

// TestContentHashDeterministic 同输入同哈希，异内容异哈希
func TestContentHashDeterministic(t *testing.T) {
	h1 := ContentHash(InsightTypeActionItem, "Send pricing deck")
	h2 := ContentHash(InsightTypeActionItem, "Send pricing deck")
	h3 := ContentHash(InsightTypeActionItem, "Send pricing decks")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64, "SHA-256 十六进制长度应为 64")
}

// TestContentHashTypePrefixed 类型参与哈希：同内容不同类型哈希不同
func TestContentHashTypePrefixed(t *testing.T) {
	assert.NotEqual(t,
		ContentHash(InsightTypeKeyTakeaway, "same text"),
		ContentHash(InsightTypeProductFeedback, "same text"),
	)
}

// TestDecomposeSummaryCardinality 一次成功抽取恰好五行摘要，一级一行
func TestDecomposeSummaryCardinality(t *testing.T) {
	summaries, _, err := Decompose(testAnalysis(), testMeta())
	require.NoError(t, err)
	require.Len(t, summaries, 5)

	seen := map[SummaryLevel]bool{}
	for _, s := range summaries {
		seen[s.Level] = true
		assert.Equal(t, ProfileTypeRich, s.ProfileType)
		assert.Equal(t, "openai:gpt-4o", s.Source)
		assert.Equal(t, len(strings.Fields(s.Text)), s.WordCount)
	}
	for _, level := range SummaryLevels() {
		assert.True(t, seen[level], "缺少级别 %s", level)
	}
}

// TestDecomposeInsightMapping 类别到列的映射必须精确
func TestDecomposeInsightMapping(t *testing.T) {
	a := testAnalysis()
	meta := testMeta()
	_, insights, err := Decompose(a, meta)
	require.NoError(t, err)
	require.Len(t, insights, 7)

	byType := map[InsightType][]Insight{}
	for _, ins := range insights {
		byType[ins.Type] = append(byType[ins.Type], ins)
	}

	actionItems := byType[InsightTypeActionItem]
	require.Len(t, actionItems, 2)
	assert.Equal(t, "Send pricing deck", *actionItems[0].Description)
	assert.Equal(t, "Sam", *actionItems[0].Owner)
	require.NotNil(t, actionItems[0].DueDate)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), actionItems[0].DueDate.UTC())
	assert.Nil(t, actionItems[1].Owner)
	assert.Nil(t, actionItems[1].DueDate)

	decisions := byType[InsightTypeDecisionMade]
	require.Len(t, decisions, 1)
	assert.Equal(t, "Move to annual billing", *decisions[0].Decision)
	assert.Equal(t, "Simplifies procurement", *decisions[0].Rationale)

	risks := byType[InsightTypeRisk]
	require.Len(t, risks, 1)
	assert.Equal(t, "Competitor trial running", *risks[0].Risk)
	assert.Equal(t, RiskSeverityHigh, *risks[0].Severity)
	assert.Equal(t, "Exec outreach", *risks[0].Mitigation)

	takeaways := byType[InsightTypeKeyTakeaway]
	require.Len(t, takeaways, 1)
	assert.Equal(t, "Champion is supportive", *takeaways[0].Text)

	// product_feedback / market_intelligence 直接映射，绝不折叠为 key_takeaway
	feedback := byType[InsightTypeProductFeedback]
	require.Len(t, feedback, 1, "product_feedback 必须保留自己的类型")
	assert.Equal(t, "Export to CSV is slow", *feedback[0].Text)

	market := byType[InsightTypeMarketIntelligence]
	require.Len(t, market, 1, "market_intelligence 必须保留自己的类型")
	assert.Equal(t, "Rival launched EU region", *market[0].Text)
}

// TestDecomposeContentHashes 每行洞察都带 type:content 哈希
func TestDecomposeContentHashes(t *testing.T) {
	_, insights, err := Decompose(testAnalysis(), testMeta())
	require.NoError(t, err)

	for _, ins := range insights {
		assert.NotEmpty(t, ins.ContentHash)
	}

	for _, ins := range insights {
		if ins.Type == InsightTypeProductFeedback {
			assert.Equal(t, ContentHash(InsightTypeProductFeedback, "Export to CSV is slow"), ins.ContentHash)
		}
	}
}

// TestDecomposeBadDueDate 非法日期导致整体失败（调用方回滚）
func TestDecomposeBadDueDate(t *testing.T) {
	a := testAnalysis()
	a.ActionItems[0].DueDate = "next tuesday"

	_, _, err := Decompose(a, testMeta())
	assert.Error(t, err)
}

// TestDecomposeMetaPropagation 元数据传到每一行
func TestDecomposeMetaPropagation(t *testing.T) {
	meta := testMeta()
	account := uuid.New()
	meta.AccountID = &account

	summaries, insights, err := Decompose(testAnalysis(), meta)
	require.NoError(t, err)

	for _, s := range summaries {
		assert.Equal(t, meta.TenantID, s.TenantID)
		assert.Equal(t, meta.InteractionID, s.InteractionID)
		assert.Equal(t, meta.PersonaID, s.PersonaID)
		assert.Equal(t, meta.TraceID, s.TraceID)
		assert.Equal(t, &account, s.AccountID)
	}
	for _, ins := range insights {
		assert.Equal(t, meta.TenantID, ins.TenantID)
		assert.Equal(t, meta.InteractionID, ins.InteractionID)
		assert.Equal(t, meta.InteractionType, ins.InteractionType)
	}
}
