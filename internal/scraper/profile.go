package scraper

// 每种链布局用一个显式 profile 描述：判别条件 + 字段下标表。
// 相比在解析代码里散落魔法下标，profile 可以单独测试，
// 页面改版时也只需要调整表。

// fieldOffsets 名称/配对符号/符号三个字段在片段序列中的下标
type fieldOffsets struct {
	name   int
	base   int
	symbol int
}

// BSC 布局
//
// 变体A（符号 ≠ 名称，标准布局）:
//
//	#|1|v2|Name|/|WBNB|Symbol|...|$|price|...
//
// 变体B（符号 = 名称）: 页面只渲染一个符号标签，原本放符号的列
// 被后续的 $ 价格列顶上来，判别方法是下标6的片段恰好是 $ 符号。
// 历史上不做这个判别曾把 "$" 当成代币符号写进库里。
const bscDiscriminatorOffset = 6

var (
	bscVariantA = fieldOffsets{name: 3, base: 5, symbol: 6}
	// 变体B: 下标3是符号（同时用作名称），配对符号位置不变
	bscVariantB = fieldOffsets{name: 3, base: 5, symbol: 3}
)

// Solana 布局
//
// 标准:     #|1|Symbol|/|SOL|Name|...
// 带标记:   #|1|CPMM|Symbol|/|SOL|Name|...
//
// DEX 类型标记出现在下标2，并把之后所有字段向右平移。
// 平移量按标记查表——未知标记直接判行失败，不能猜偏移。
const (
	solanaMarkerOffset   = 2
	solanaSlashOffset    = 3 // 标准布局下 / 分隔符的下标
	solanaSlashWithMark  = 4 // 带标记布局下 / 分隔符的下标
	solanaBaseName       = 5
	solanaBaseSymbol     = 2
	solanaBaseBaseSymbol = 4
)

// solanaMarkerDelta 已知 DEX 类型标记 → 字段下标平移量
var solanaMarkerDelta = map[string]int{
	"CPMM": 1,
	"CLMM": 1,
	"DLMM": 1,
	"DYN":  1,
	"DYN2": 1,
	"wp":   1,
	"v2":   1,
	"v3":   1,
}

// bscOffsets 根据判别片段选择 BSC 变体。
// 返回的第二个值表示是否命中变体B（符号=名称）。
func bscOffsets(parts []string) (fieldOffsets, bool) {
	if parts[bscDiscriminatorOffset] == "$" {
		return bscVariantB, true
	}
	return bscVariantA, false
}

// solanaOffsets 识别 DEX 标记并返回平移后的字段下标和标记本身。
// / 分隔符出现在下标4说明下标2一定是标记；不在表内则判 ErrUnknownDexMarker。
func solanaOffsets(parts []string) (fieldOffsets, string, error) {
	if len(parts) > solanaSlashOffset && parts[solanaSlashOffset] == "/" {
		// 标准布局，无标记
		return fieldOffsets{
			name:   solanaBaseName,
			base:   solanaBaseBaseSymbol,
			symbol: solanaBaseSymbol,
		}, "", nil
	}

	marker := parts[solanaMarkerOffset]
	delta, ok := solanaMarkerDelta[marker]
	if !ok {
		return fieldOffsets{}, "", ErrUnknownDexMarker
	}
	return fieldOffsets{
		name:   solanaBaseName + delta,
		base:   solanaBaseBaseSymbol + delta,
		symbol: solanaBaseSymbol + delta,
	}, marker, nil
}
