package chat

// Intent 回合意图，封闭枚举
// 新增意图时编译器会在策略分发处提示未覆盖的分支
type Intent int

const (
	// IntentUnknown 未识别意图（分类器兜底前的中间态）
	IntentUnknown Intent = iota
	// IntentChitChat 闲聊
	IntentChitChat
	// IntentTextAnswer 基于检索的文本回答
	IntentTextAnswer
	// IntentVisualReport 可视化报表生成
	IntentVisualReport
	// IntentEmail 通用邮件发送
	IntentEmail
	// IntentVisualReportAndEmail 生成报表并发送邮件（组合策略）
	IntentVisualReportAndEmail
	// IntentEmailText 发送最近一次文本输出
	IntentEmailText
	// IntentEmailImage 发送最近一次图像输出
	IntentEmailImage
)

var intentNames = map[Intent]string{
	IntentUnknown:              "unknown",
	IntentChitChat:             "chit_chat",
	IntentTextAnswer:           "text_answer",
	IntentVisualReport:         "visual_report",
	IntentEmail:                "email",
	IntentVisualReportAndEmail: "visual_report_and_email",
	IntentEmailText:            "email_text",
	IntentEmailImage:           "email_image",
}

// String 返回意图的分类器标签
func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "unknown"
}

// ParseIntent 解析分类器输出的标签
// 历史遗留标签 knowledge_question 等价于 text_answer
// 无法识别返回 IntentUnknown，由调用方兜底为 text_answer
func ParseIntent(label string) Intent {
	switch label {
	case "chit_chat":
		return IntentChitChat
	case "text_answer", "knowledge_question":
		return IntentTextAnswer
	case "visual_report":
		return IntentVisualReport
	case "email":
		return IntentEmail
	case "visual_report_and_email":
		return IntentVisualReportAndEmail
	case "email_text":
		return IntentEmailText
	case "email_image":
		return IntentEmailImage
	default:
		return IntentUnknown
	}
}
