package interfaces

import (
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http"
)

// HTTPServer HTTP 服务器类型别名
type HTTPServer = http.HTTPServer
