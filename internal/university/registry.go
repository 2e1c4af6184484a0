package university

// Region 一个国家/地区及其高校邮箱域名后缀（顺序即匹配优先级）
type Region struct {
	Code     string
	Suffixes []string
}

// Registry 高校域名注册表
//
// 构造后只读，可在多个 goroutine 间共享。
// Regions 的顺序与每个 Region 内 Suffixes 的顺序共同决定分类结果，
// 调整顺序会改变输出。
type Registry struct {
	regions  []Region
	keywords []string
}

// NewRegistry 使用给定的地区列表与通用关键词创建注册表
//
// 传入的切片会被复制，调用方之后的修改不会影响注册表。
func NewRegistry(regions []Region, keywords []string) *Registry {
	copied := make([]Region, len(regions))
	for i, r := range regions {
		copied[i] = Region{
			Code:     r.Code,
			Suffixes: append([]string(nil), r.Suffixes...),
		}
	}
	return &Registry{
		regions:  copied,
		keywords: append([]string(nil), keywords...),
	}
}

// Regions 返回地区列表副本
func (r *Registry) Regions() []Region {
	out := make([]Region, len(r.regions))
	for i, region := range r.regions {
		out[i] = Region{Code: region.Code, Suffixes: append([]string(nil), region.Suffixes...)}
	}
	return out
}

// Keywords 返回通用关键词副本
func (r *Registry) Keywords() []string {
	return append([]string(nil), r.keywords...)
}

// DefaultRegistry 返回生产环境使用的注册表
func DefaultRegistry() *Registry {
	return NewRegistry([]Region{
		{Code: "us", Suffixes: []string{
			".edu",
			"harvard.edu",
			"mit.edu",
			"stanford.edu",
			"berkeley.edu",
			"caltech.edu",
			"yale.edu",
			"princeton.edu",
			"columbia.edu",
			"chicago.edu",
		}},
		{Code: "uk", Suffixes: []string{
			".ac.uk",
			"ox.ac.uk",
			"cam.ac.uk",
			"imperial.ac.uk",
			"ucl.ac.uk",
			"lse.ac.uk",
			"kcl.ac.uk",
			"manchester.ac.uk",
			"warwick.ac.uk",
			"bristol.ac.uk",
			"dur.ac.uk",
		}},
		{Code: "ca", Suffixes: []string{
			".ca",
			"utoronto.ca",
			"mcgill.ca",
			"ubc.ca",
			"queensu.ca",
			"uwaterloo.ca",
			"mcmaster.ca",
			"yorku.ca",
			"sfu.ca",
			"carleton.ca",
		}},
		{Code: "au", Suffixes: []string{
			".edu.au",
			"sydney.edu.au",
			"melbourne.edu.au",
			"unsw.edu.au",
			"anu.edu.au",
			"uq.edu.au",
			"monash.edu.au",
			"adelaide.edu.au",
			"uwa.edu.au",
			"uts.edu.au",
		}},
		{Code: "de", Suffixes: []string{
			".uni-",
			".tu-",
			".fh-",
			".hs-",
			"uni-muenchen.de",
			"uni-heidelberg.de",
			"uni-berlin.de",
			"tu-berlin.de",
			"rwth-aachen.de",
			"kit.edu",
		}},
		{Code: "fr", Suffixes: []string{
			".edu",
			"sorbonne-universite.fr",
			"ens.fr",
			"polytechnique.edu",
			"sciences-po.fr",
			"insead.edu",
			"hec.fr",
			"essec.edu",
		}},
		{Code: "nl", Suffixes: []string{
			".nl",
			"uva.nl",
			"vu.nl",
			"tue.nl",
			"tudelft.nl",
			"rug.nl",
			"uu.nl",
			"leiden.edu",
			"tilburguniversity.edu",
		}},
		{Code: "sg", Suffixes: []string{
			".edu.sg",
			"nus.edu.sg",
			"ntu.edu.sg",
			"smu.edu.sg",
			"sutd.edu.sg",
			"sit.edu.sg",
		}},
		{Code: "nz", Suffixes: []string{
			".ac.nz",
			"auckland.ac.nz",
			"otago.ac.nz",
			"canterbury.ac.nz",
			"victoria.ac.nz",
			"massey.ac.nz",
		}},
		{Code: "jp", Suffixes: []string{
			".ac.jp",
			"u-tokyo.ac.jp",
			"kyoto-u.ac.jp",
			"titech.ac.jp",
			"osaka-u.ac.jp",
			"tohoku.ac.jp",
		}},
		{Code: "kr", Suffixes: []string{
			".ac.kr",
			"snu.ac.kr",
			"kaist.ac.kr",
			"postech.ac.kr",
			"yonsei.ac.kr",
		}},
	}, []string{
		"university",
		"college",
		"institute",
		"school",
		"uni.",
		"univ.",
		"student.",
		"campus",
	})
}
