package biz

import "github.com/google/wire"

// ProviderSet biz 层依赖注入
var ProviderSet = wire.NewSet(
	NewChangeExtractor,
	NewImpactAssessor,
	NewConflictDetector,
	NewVersionCalculator,
	NewDiffEngine,
	NewRestorePointManager,
	NewVersionUsecase,
	NewRollbackCoordinator,
	wire.Value(&RollbackConfig{VerifyChecksum: true}),
)
