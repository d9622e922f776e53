package domain

// FeedbackTimeLayout 是反馈记录中 timestamp 字段的格式。
const FeedbackTimeLayout = "2006-01-02 15:04:05"

const (
	FeedbackFieldUsername  = "username"
	FeedbackFieldTimestamp = "timestamp"
)

// Feedback 是一条用户反馈。字段由客户端任意提交，
// 但 username 和 timestamp 两个字段始终由服务端写入。
type Feedback map[string]any

// Stamp 用服务端可信的值覆盖 username 和 timestamp。
func (f Feedback) Stamp(username, timestamp string) {
	f[FeedbackFieldUsername] = username
	f[FeedbackFieldTimestamp] = timestamp
}

// Username 返回记录中的用户名，缺失时返回空串。
func (f Feedback) Username() string {
	s, _ := f[FeedbackFieldUsername].(string)
	return s
}

// Timestamp 返回记录中的提交时间，缺失时返回空串。
func (f Feedback) Timestamp() string {
	s, _ := f[FeedbackFieldTimestamp].(string)
	return s
}

// Clone 返回浅拷贝，避免调用方修改已存储的记录。
func (f Feedback) Clone() Feedback {
	out := make(Feedback, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
