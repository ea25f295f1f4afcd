package domain

import "errors"

var (
	// ErrInvalidFeedback 反馈记录不合法（缺少 ID/SOPID/UserID 或评论为空）
	ErrInvalidFeedback = errors.New("invalid feedback request")

	// ErrInvalidVersionFormat 版本号格式不合法
	ErrInvalidVersionFormat = errors.New("invalid version format")

	// ErrVersionNotFound 版本未找到
	ErrVersionNotFound = errors.New("version not found")

	// ErrHistoryNotFound 文档版本历史未找到
	ErrHistoryNotFound = errors.New("version history not found")

	// ErrRestorePointNotFound 恢复点未找到
	ErrRestorePointNotFound = errors.New("restore point not found")

	// ErrVersionNotMonotonic 版本号未单调递增
	ErrVersionNotMonotonic = errors.New("version number not monotonically increasing")

	// ErrInvalidStatusTransition 非法的版本状态流转
	ErrInvalidStatusTransition = errors.New("invalid version status transition")

	// ErrChangeTargetInvalid 变更目标无法在当前文档中定位
	ErrChangeTargetInvalid = errors.New("change target does not resolve")

	// ErrEmptyChangeBatch 变更批次为空
	ErrEmptyChangeBatch = errors.New("empty change batch")

	// ErrBlockingConflicts 批次内存在阻塞性冲突
	ErrBlockingConflicts = errors.New("batch contains blocking conflicts")
)
