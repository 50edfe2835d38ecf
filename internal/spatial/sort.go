package spatial

import "sort"

func sortHottest(hs []Located) {
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].HI != hs[j].HI {
			return hs[i].HI > hs[j].HI
		}
		if hs[i].Row != hs[j].Row {
			return hs[i].Row < hs[j].Row
		}
		return hs[i].Col < hs[j].Col
	})
}
