package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrConditionNotMet 条件更新未命中任何行（如座位已满、选课数已达上限）
var ErrConditionNotMet = errors.New("条件更新未生效")
