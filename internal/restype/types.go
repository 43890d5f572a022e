package restype

// Well-known type ids referenced directly by the tools.
const (
	TypeTXT uint16 = 0x000A
	Type2DA uint16 = 0x07E1
	TypeTLK uint16 = 0x07E2
	TypeTPC uint16 = 0x0BBF
	TypeERF uint16 = 0x270D
	TypeBIF uint16 = 0x270E
	TypeKEY uint16 = 0x270F
)

var kotorTypes = map[uint16]string{
	0x0000: "res", // misc. GFF resources
	0x0001: "bmp",
	0x0002: "mve",
	0x0003: "tga",
	0x0004: "wav",
	0x0006: "plt", // packed layer texture
	0x0007: "ini",
	0x0008: "mp3",
	0x0009: "mpg",
	0x000A: "txt",
	0x000B: "wma",
	0x000C: "wmv",
	0x000D: "xmv",
	0x07D0: "plh",
	0x07D1: "tex",
	0x07D2: "mdl",
	0x07D3: "thg",
	0x07D5: "fnt",
	0x07D7: "lua",
	0x07D8: "slt",
	0x07D9: "nss", // script source
	0x07DA: "ncs", // compiled script
	0x07DB: "mod",
	0x07DC: "are",
	0x07DD: "set",
	0x07DE: "ifo",
	0x07DF: "bic",
	0x07E0: "wok",
	0x07E1: "2da",
	0x07E2: "tlk",
	0x07E6: "txi",
	0x07E7: "git",
	0x07E8: "bti",
	0x07E9: "uti",
	0x07EA: "btc",
	0x07EB: "utc",
	0x07ED: "dlg",
	0x07EE: "itp",
	0x07EF: "btt",
	0x07F0: "utt",
	0x07F1: "dds",
	0x07F2: "bts",
	0x07F3: "uts",
	0x07F4: "ltr",
	0x07F5: "gff",
	0x07F6: "fac",
	0x07F7: "bte",
	0x07F8: "ute",
	0x07F9: "btd",
	0x07FA: "utd",
	0x07FB: "btp",
	0x07FC: "utp",
	0x07FD: "dft",
	0x07FE: "gic",
	0x07FF: "gui",
	0x0800: "css",
	0x0801: "ccs",
	0x0802: "btm",
	0x0803: "utm",
	0x0804: "dwk",
	0x0805: "pwk",
	0x0806: "btg",
	0x0807: "utg",
	0x0808: "jrl",
	0x0809: "sav",
	0x080A: "utw",
	0x080B: "4pc",
	0x080C: "ssf",
	0x080D: "hak",
	0x080E: "nwm",
	0x080F: "bik",
	0x0810: "ndb",
	0x0811: "ptm",
	0x0812: "ptt",
	0x0BB8: "lyt",
	0x0BB9: "vis",
	0x0BBA: "rim",
	0x0BBB: "pth",
	0x0BBC: "lip",
	0x0BBD: "bwm",
	0x0BBE: "txb",
	0x0BBF: "tpc",
	0x0BC0: "mdx",
	0x0BC1: "rsv",
	0x0BC2: "sig",
	0x0BC3: "xbx",
	0x270D: "erf",
	0x270E: "bif",
	0x270F: "key",
}
