package intelligence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SummaryLevel 摘要粒度级别，与 Postgres 枚举 SummaryLevel 一致
type SummaryLevel string

const (
	SummaryLevelTitle     SummaryLevel = "title"
	SummaryLevelHeadline  SummaryLevel = "headline"
	SummaryLevelBrief     SummaryLevel = "brief"
	SummaryLevelDetailed  SummaryLevel = "detailed"
	SummaryLevelSpotlight SummaryLevel = "spotlight"
)

// SummaryLevels 固定顺序的全部级别，一次成功抽取恰好产出五行
func SummaryLevels() []SummaryLevel {
	return []SummaryLevel{
		SummaryLevelTitle,
		SummaryLevelHeadline,
		SummaryLevelBrief,
		SummaryLevelDetailed,
		SummaryLevelSpotlight,
	}
}

// ProfileType 摘要画像类型
type ProfileType string

const (
	ProfileTypeRich ProfileType = "rich"
	ProfileTypeLite ProfileType = "lite"
)

// InsightType 洞察类型，与 Postgres 枚举 InsightType 一致
type InsightType string

const (
	InsightTypeActionItem         InsightType = "action_item"
	InsightTypeKeyTakeaway        InsightType = "key_takeaway"
	InsightTypeDecisionMade       InsightType = "decision_made"
	InsightTypeRisk               InsightType = "risk"
	InsightTypeProductFeedback    InsightType = "product_feedback"
	InsightTypeMarketIntelligence InsightType = "market_intelligence"
)

// DefaultPersonaCode 默认抽取视角
const DefaultPersonaCode = "gtm"

// ContentHash 洞察去重哈希：SHA-256("<type>:<content>") 的十六进制
func ContentHash(insightType InsightType, content string) string {
	sum := sha256.Sum256([]byte(string(insightType) + ":" + content))
	return hex.EncodeToString(sum[:])
}

// Meta 拆解行时共用的交互元数据
type Meta struct {
	InteractionID        uuid.UUID
	TenantID             uuid.UUID
	PersonaID            uuid.UUID
	TraceID              string
	InteractionType      string
	AccountID            *uuid.UUID
	InteractionTimestamp time.Time
	// Source 形如 openai:<model>
	Source string
}

// SummaryEntry interaction_summary_entries 的一行
type SummaryEntry struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	InteractionID        uuid.UUID
	PersonaID            uuid.UUID
	Level                SummaryLevel
	Text                 string
	WordCount            int
	ProfileType          ProfileType
	Source               string
	TraceID              string
	InteractionType      string
	AccountID            *uuid.UUID
	InteractionTimestamp time.Time
}

// Insight interaction_insights 的一行
// 多态行：按 Type 填充对应的列，其余保持 NULL
type Insight struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	InteractionID uuid.UUID
	PersonaID     uuid.UUID
	Type          InsightType

	Description *string
	Owner       *string
	DueDate     *time.Time
	Text        *string
	Decision    *string
	Rationale   *string
	Risk        *string
	Severity    *RiskSeverity
	Mitigation  *string

	ContentHash          string
	TraceID              string
	InteractionType      string
	AccountID            *uuid.UUID
	InteractionTimestamp time.Time
}

// Decompose 把一次抽取结果拆解为五行摘要与 N 行洞察
// 类别到列的映射是固定契约：product_feedback 与 market_intelligence
// 直接映射到各自类型，绝不折叠为 key_takeaway
func Decompose(a *Analysis, meta Meta) ([]SummaryEntry, []Insight, error) {
	summaryTexts := map[SummaryLevel]string{
		SummaryLevelTitle:     a.Summaries.Title,
		SummaryLevelHeadline:  a.Summaries.Headline,
		SummaryLevelBrief:     a.Summaries.Brief,
		SummaryLevelDetailed:  a.Summaries.Detailed,
		SummaryLevelSpotlight: a.Summaries.Spotlight,
	}

	summaries := make([]SummaryEntry, 0, len(summaryTexts))
	for _, level := range SummaryLevels() {
		text := summaryTexts[level]
		summaries = append(summaries, SummaryEntry{
			ID:                   uuid.New(),
			TenantID:             meta.TenantID,
			InteractionID:        meta.InteractionID,
			PersonaID:            meta.PersonaID,
			Level:                level,
			Text:                 text,
			WordCount:            len(strings.Fields(text)),
			ProfileType:          ProfileTypeRich,
			Source:               meta.Source,
			TraceID:              meta.TraceID,
			InteractionType:      meta.InteractionType,
			AccountID:            meta.AccountID,
			InteractionTimestamp: meta.InteractionTimestamp,
		})
	}

	insights := make([]Insight, 0, a.InsightCount())

	newInsight := func(t InsightType, hashContent string) Insight {
		return Insight{
			ID:                   uuid.New(),
			TenantID:             meta.TenantID,
			InteractionID:        meta.InteractionID,
			PersonaID:            meta.PersonaID,
			Type:                 t,
			ContentHash:          ContentHash(t, hashContent),
			TraceID:              meta.TraceID,
			InteractionType:      meta.InteractionType,
			AccountID:            meta.AccountID,
			InteractionTimestamp: meta.InteractionTimestamp,
		}
	}

	for _, item := range a.ActionItems {
		row := newInsight(InsightTypeActionItem, item.Description)
		row.Description = ptr(item.Description)
		row.Owner = optional(item.Owner)
		if item.DueDate != "" {
			due, err := time.ParseInLocation("2006-01-02", item.DueDate, time.UTC)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse action item due date %q: %w", item.DueDate, err)
			}
			row.DueDate = &due
		}
		insights = append(insights, row)
	}

	for _, item := range a.Decisions {
		row := newInsight(InsightTypeDecisionMade, item.Decision)
		row.Decision = ptr(item.Decision)
		row.Rationale = optional(item.Rationale)
		insights = append(insights, row)
	}

	for _, item := range a.Risks {
		row := newInsight(InsightTypeRisk, item.Risk)
		row.Risk = ptr(item.Risk)
		if item.Severity != "" {
			sev := item.Severity
			row.Severity = &sev
		}
		row.Mitigation = optional(item.Mitigation)
		insights = append(insights, row)
	}

	for _, text := range a.KeyTakeaways {
		row := newInsight(InsightTypeKeyTakeaway, text)
		row.Text = ptr(text)
		insights = append(insights, row)
	}

	for _, item := range a.ProductFeedback {
		row := newInsight(InsightTypeProductFeedback, item.Text)
		row.Text = ptr(item.Text)
		insights = append(insights, row)
	}

	for _, item := range a.MarketIntelligence {
		row := newInsight(InsightTypeMarketIntelligence, item.Text)
		row.Text = ptr(item.Text)
		insights = append(insights, row)
	}

	return summaries, insights, nil
}

func ptr(s string) *string {
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
