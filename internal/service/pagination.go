package service

// pageWindow clamps page to >= 1 and perPage to [1, 100] (default 10) and
// returns them with the matching SQL offset.
func pageWindow(page, perPage int) (p, pp, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage, (page - 1) * perPage
}
