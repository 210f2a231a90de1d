package catalog

// Entry is one listed stock, keyed by its exchange-qualified code.
type Entry struct {
    Code string `json:"code"`
    Name string `json:"name"`
}

// Industry groups catalog entries. A symbol may appear under more than one
// industry; the duplication is intentional.
type Industry struct {
    Name   string  `json:"name"`
    Code   string  `json:"code"`
    Stocks []Entry `json:"stocks"`
}

// industries is defined once and read-only for the process lifetime, so
// unsynchronized concurrent reads are safe.
var industries = []Industry{
    {
        Name: "银行", Code: "BK_BANK",
        Stocks: []Entry{
            {Code: "600036.SH", Name: "招商银行"},
            {Code: "601398.SH", Name: "工商银行"},
            {Code: "601939.SH", Name: "建设银行"},
            {Code: "601288.SH", Name: "农业银行"},
            {Code: "000001.SZ", Name: "平安银行"},
            {Code: "600000.SH", Name: "浦发银行"},
            {Code: "601166.SH", Name: "兴业银行"},
            {Code: "002142.SZ", Name: "宁波银行"},
        },
    },
    {
        Name: "白酒饮料", Code: "BK_LIQUOR",
        Stocks: []Entry{
            {Code: "600519.SH", Name: "贵州茅台"},
            {Code: "000858.SZ", Name: "五粮液"},
            {Code: "000568.SZ", Name: "泸州老窖"},
            {Code: "600809.SH", Name: "山西汾酒"},
            {Code: "002304.SZ", Name: "洋河股份"},
            {Code: "600600.SH", Name: "青岛啤酒"},
        },
    },
    {
        Name: "新能源", Code: "BK_NEWENERGY",
        Stocks: []Entry{
            {Code: "300750.SZ", Name: "宁德时代"},
            {Code: "002594.SZ", Name: "比亚迪"},
            {Code: "601012.SH", Name: "隆基绿能"},
            {Code: "002460.SZ", Name: "赣锋锂业"},
            {Code: "600905.SH", Name: "三峡能源"},
            {Code: "688599.SH", Name: "天合光能"},
        },
    },
    {
        Name: "汽车", Code: "BK_AUTO",
        Stocks: []Entry{
            {Code: "002594.SZ", Name: "比亚迪"},
            {Code: "600104.SH", Name: "上汽集团"},
            {Code: "601633.SH", Name: "长城汽车"},
            {Code: "000625.SZ", Name: "长安汽车"},
            {Code: "601238.SH", Name: "广汽集团"},
        },
    },
    {
        Name: "医药生物", Code: "BK_PHARMA",
        Stocks: []Entry{
            {Code: "600276.SH", Name: "恒瑞医药"},
            {Code: "300760.SZ", Name: "迈瑞医疗"},
            {Code: "603259.SH", Name: "药明康德"},
            {Code: "000661.SZ", Name: "长春高新"},
            {Code: "600196.SH", Name: "复星医药"},
            {Code: "002821.SZ", Name: "凯莱英"},
        },
    },
    {
        Name: "电子科技", Code: "BK_TECH",
        Stocks: []Entry{
            {Code: "002415.SZ", Name: "海康威视"},
            {Code: "002475.SZ", Name: "立讯精密"},
            {Code: "603501.SH", Name: "韦尔股份"},
            {Code: "688981.SH", Name: "中芯国际"},
            {Code: "002371.SZ", Name: "北方华创"},
            {Code: "300782.SZ", Name: "卓胜微"},
        },
    },
    {
        Name: "互联网传媒", Code: "BK_INTERNET",
        Stocks: []Entry{
            {Code: "002415.SZ", Name: "海康威视"},
            {Code: "300059.SZ", Name: "东方财富"},
            {Code: "002230.SZ", Name: "科大讯飞"},
            {Code: "603444.SH", Name: "吉比特"},
            {Code: "002624.SZ", Name: "完美世界"},
        },
    },
    {
        Name: "食品消费", Code: "BK_CONSUMER",
        Stocks: []Entry{
            {Code: "600887.SH", Name: "伊利股份"},
            {Code: "603288.SH", Name: "海天味业"},
            {Code: "000895.SZ", Name: "双汇发展"},
            {Code: "600600.SH", Name: "青岛啤酒"},
            {Code: "002714.SZ", Name: "牧原股份"},
        },
    },
    {
        Name: "基建地产", Code: "BK_INFRA",
        Stocks: []Entry{
            {Code: "601668.SH", Name: "中国建筑"},
            {Code: "601390.SH", Name: "中国中铁"},
            {Code: "600048.SH", Name: "保利发展"},
            {Code: "000002.SZ", Name: "万科A"},
            {Code: "601800.SH", Name: "中国交建"},
        },
    },
    {
        Name: "证券保险", Code: "BK_FINANCE",
        Stocks: []Entry{
            {Code: "601318.SH", Name: "中国平安"},
            {Code: "600030.SH", Name: "中信证券"},
            {Code: "601628.SH", Name: "中国人寿"},
            {Code: "300059.SZ", Name: "东方财富"},
            {Code: "601688.SH", Name: "华泰证券"},
        },
    },
}

// ListIndustries returns the industry groups in catalog order. The returned
// slice is a copy; the underlying entries are shared and must not be
// mutated.
func ListIndustries() []Industry {
    out := make([]Industry, len(industries))
    copy(out, industries)
    return out
}

// Find locates a catalog entry by code, first match wins.
func Find(code string) (Entry, bool) {
    for _, ind := range industries {
        for _, e := range ind.Stocks {
            if e.Code == code {
                return e, true
            }
        }
    }
    return Entry{}, false
}

// Codes returns every distinct code in catalog order.
func Codes() []string {
    seen := make(map[string]struct{})
    var out []string
    for _, ind := range industries {
        for _, e := range ind.Stocks {
            if _, dup := seen[e.Code]; dup { continue }
            seen[e.Code] = struct{}{}
            out = append(out, e.Code)
        }
    }
    return out
}
