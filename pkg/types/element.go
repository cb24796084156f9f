package types

// ============================================================================
//                              ElementKind - 元素类型
// ============================================================================

// ElementKind 元素内容类型
type ElementKind int

const (
	// KindImage 图片元素
	KindImage ElementKind = iota

	// KindVideo 视频元素
	KindVideo

	// KindAudio 音频元素
	KindAudio

	// KindDocument 文档元素
	KindDocument

	// KindEmbed 嵌入元素
	KindEmbed

	// KindCustom 自定义元素
	KindCustom
)

// String 返回元素类型的字符串表示
func (k ElementKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindDocument:
		return "document"
	case KindEmbed:
		return "embed"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              Element - 元素
// ============================================================================

// Element 内容元素
//
// Element 是被生命周期状态机跟踪的内容单元。
// ID 由调用方分配，对系统不透明；当前生命周期状态
// 不存储在元素本身，而是由 LifecycleManager 按 ID 跟踪。
type Element struct {
	// ID 元素标识（调用方分配，不透明字符串）
	ID string

	// Kind 元素内容类型
	Kind ElementKind

	// Content 内容载荷引用（对本子系统不透明）
	Content any

	// Props 元素属性
	Props map[string]any
}

// NewElement 创建元素
func NewElement(id string, kind ElementKind, content any) Element {
	return Element{
		ID:      id,
		Kind:    kind,
		Content: content,
	}
}
