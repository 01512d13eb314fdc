package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 仪表盘固定窗口
const (
	RecentActivityWindow  = 5
	ContinueReadingWindow = 3
)

const MimeNDJSON = "application/x-ndjson"
