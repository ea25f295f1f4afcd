package domain

import (
	"strings"
	"time"
)

// FeedbackSource 反馈来源渠道
type FeedbackSource string

const (
	SourceVoice  FeedbackSource = "voice"  // 语音转写
	SourceText   FeedbackSource = "text"   // 文字输入
	SourceReview FeedbackSource = "review" // 评审批注
)

// FeedbackRequest 进入变更提取的反馈记录
// 由会话编排层产出，此处只消费其结构
type FeedbackRequest struct {
	ID            string            `json:"id"`
	SOPID         string            `json:"sop_id"`
	UserID        string            `json:"user_id"`
	Comment       string            `json:"comment"`
	OriginalText  string            `json:"original_text,omitempty"`
	SuggestedText string            `json:"suggested_text,omitempty"`
	TargetHint    *ChangeTarget     `json:"target_hint,omitempty"`
	Source        FeedbackSource    `json:"source"`
	Confidence    float64           `json:"confidence,omitempty"` // 语音转写置信度
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Validate 校验反馈记录，不合法的记录在提取前整体拒绝
func (f *FeedbackRequest) Validate() error {
	if f.ID == "" || f.SOPID == "" || f.UserID == "" {
		return ErrInvalidFeedback
	}
	if strings.TrimSpace(f.Comment) == "" {
		return ErrInvalidFeedback
	}
	return nil
}
