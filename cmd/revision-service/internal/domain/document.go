package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// SectionType 章节类型
type SectionType string

const (
	SectionOverview  SectionType = "overview"  // 概述
	SectionProcedure SectionType = "procedure" // 操作步骤
	SectionSafety    SectionType = "safety"    // 安全注意事项
	SectionAppendix  SectionType = "appendix"  // 附录
)

// Checkpoint 章节检查点
type Checkpoint struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Section 文档章节
type Section struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Type        SectionType  `json:"type"`
	Order       int          `json:"order"`
	Checkpoints []Checkpoint `json:"checkpoints,omitempty"`
}

// Chart 文档图表引用
type Chart struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"` // flowchart, table, timeline
	Spec  string `json:"spec"` // 渲染层负责解释
}

// DocumentSnapshot 文档快照（不可变的结构化内容）
type DocumentSnapshot struct {
	Title    string            `json:"title"`
	Sections []Section         `json:"sections"`
	Charts   []Chart           `json:"charts,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone 深拷贝快照
func (d *DocumentSnapshot) Clone() *DocumentSnapshot {
	if d == nil {
		return nil
	}

	c := &DocumentSnapshot{
		Title:    d.Title,
		Sections: make([]Section, len(d.Sections)),
		Charts:   make([]Chart, len(d.Charts)),
	}

	for i, s := range d.Sections {
		cs := s
		cs.Checkpoints = append([]Checkpoint(nil), s.Checkpoints...)
		c.Sections[i] = cs
	}
	copy(c.Charts, d.Charts)

	if d.Metadata != nil {
		c.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}

	return c
}

// Checksum 计算内容校验和
// 基于规范化 JSON 的 SHA-256，对相同内容恒定，任意字段变化即改变
func (d *DocumentSnapshot) Checksum() string {
	// encoding/json 对 map 键排序，结构体字段按声明序输出，结果确定
	data, err := json.Marshal(d)
	if err != nil {
		// 快照为纯数据结构，序列化不应失败
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FindSection 按 ID 查找章节
func (d *DocumentSnapshot) FindSection(id string) *Section {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i]
		}
	}
	return nil
}

// FindSectionByTitle 按标题关键词查找章节（大小写不敏感的包含匹配）
func (d *DocumentSnapshot) FindSectionByTitle(keyword string) *Section {
	if keyword == "" {
		return nil
	}

	lower := strings.ToLower(keyword)
	for i := range d.Sections {
		if strings.Contains(strings.ToLower(d.Sections[i].Title), lower) {
			return &d.Sections[i]
		}
	}
	return nil
}

// FindChart 按 ID 查找图表
func (d *DocumentSnapshot) FindChart(id string) *Chart {
	for i := range d.Charts {
		if d.Charts[i].ID == id {
			return &d.Charts[i]
		}
	}
	return nil
}
