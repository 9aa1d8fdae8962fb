package adapters

// Facebook、Instagram、WhatsApp 共用 Graph API 的响应结构。

const defaultGraphURL = "https://graph.facebook.com/v19.0"

type graphID struct {
	ID string `json:"id"`
}

type graphInsights struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value uint64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

// value 返回指定 metric 的第一个值，没有时为 0。
func (g graphInsights) value(name string) uint64 {
	for _, d := range g.Data {
		if d.Name == name && len(d.Values) > 0 {
			return d.Values[0].Value
		}
	}
	return 0
}
