package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Estimator 使用 tiktoken 精确估算 Token 数量
// 抽取服务用它为长短转写选择不同的超时
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// 单例实例
var (
	estimatorInstance *Estimator
	estimatorOnce     sync.Once
	estimatorErr      error
)

// GetEstimator 获取 Estimator 单例
// 使用单例模式避免重复加载编码文件
func GetEstimator() (*Estimator, error) {
	estimatorOnce.Do(func() {
		// 使用 cl100k_base 编码（GPT-4 系模型兼容）
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			estimatorErr = err
			return
		}
		estimatorInstance = &Estimator{
			encoding: enc,
		}
	})

	if estimatorErr != nil {
		return nil, estimatorErr
	}
	return estimatorInstance, nil
}

// CountTokens 计算文本的 Token 数量
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}
