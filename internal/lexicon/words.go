package lexicon

// builtinWords is keyed by ISO 639-1 code.
var builtinWords = map[string][]string{
	"en": {"damn", "hell", "shit", "fuck", "bitch", "ass", "crap", "piss", "bastard"},
	"es": {"mierda", "joder", "coño", "puta", "cabrón", "pendejo", "pinche", "carajo"},
	"fr": {"merde", "putain", "connard", "salope", "bordel", "con", "chiant"},
	"de": {"scheiße", "verdammt", "arsch", "fotze", "hurensohn", "kacke"},
	"it": {"merda", "cazzo", "stronzo", "puttana", "vaffanculo", "bastardo"},
	"pt": {"merda", "porra", "caralho", "puta", "foder", "buceta"},
	"ru": {"блядь", "сука", "хуй", "пизда", "ебать", "гавно"},
	"ar": {"خرا", "لعنة", "تبا", "كلب", "حمار"},
	"zh": {"操", "妈的", "狗屎", "混蛋", "白痴", "傻逼"},
	"ja": {"クソ", "バカ", "アホ", "ばか", "くそ", "ちくしょう"},
	"ko": {"씨발", "개새끼", "병신", "젠장", "빌어먹을"},
	"hi": {"गांडू", "चूतिया", "भोसड़ी", "रंडी", "हरामी"},
	"nl": {"shit", "fuck", "klootzak", "kut", "lul", "kanker"},
	"sv": {"skit", "fan", "kuk", "fitta", "jävla", "helvete"},
	"no": {"faen", "dritt", "kuk", "fitte", "jævla"},
	"da": {"lort", "fanden", "pik", "luder", "røvhul"},
	"fi": {"paska", "vittu", "perkele", "helvetti", "saatana"},
	"pl": {"kurwa", "gówno", "dupa", "chuj", "pierdolić", "skurwysyn"},
	"tr": {"bok", "siktir", "orospu", "pezevenk", "amcık"},
	"he": {"חרא", "לעזאזל", "זין", "כוס", "בן זונה"},
	"th": {"ห่า", "เหี้ย", "ควาย", "อีดอก"},
	"vi": {"đồ chó", "cứt", "địt mẹ", "con đĩ", "thằng ngu"},
	"id": {"anjing", "brengsek", "bangsat", "kontol", "memek"},
	"ms": {"pukimak", "babi", "sial", "lancau", "bodoh"},
	"tl": {"putang ina", "gago", "tanga", "bobo", "tarantado"},
	"sw": {"mwizi", "mjinga", "pumbavu", "malaya"},
	"ur": {"کتے", "بکواس", "چوتیا", "رنڈی"},
	"bn": {"শালা", "মাগী", "বেশ্যা", "হারামী"},
	"ta": {"பொறுக்கி", "தேவடியா", "ஓத்த"},
	"te": {"గుద్ద", "తేవడియా", "కామ్మ"},
	"mr": {"रंडी", "कुत्रा", "गधा"},
	"gu": {"કુતરો", "ગધેડો", "રંડી"},
	"pa": {"کتے", "رندی"},
	"ml": {"പൂറി", "കുണ്ണ", "തേവടിച്ചി"},
	"kn": {"ದೇವಡಿ", "ಕುತ್ತೆ"},
	"or": {"କୁତା", "ରଣ୍ଡି", "ଗଧ"},
	"as": {"কুত্তা", "গাধ", "ৰণ্ডী"},
}

// baseWords is checked for every segment regardless of language.
var baseWords = []string{
	"arse", "arsehole", "asshole", "bastard", "bitch", "bollocks", "bullshit",
	"cock", "crap", "cunt", "damn", "dick", "douche", "fuck", "fucker",
	"fucking", "goddamn", "motherfucker", "piss", "prick", "pussy", "shit",
	"shitty", "slut", "twat", "wanker", "whore",
}

// heuristicWords mark hostile or negative speech. They never flag a segment
// on their own but raise confidence when a lexicon hit is present.
var heuristicWords = []string{
	"angry", "awful", "disgusting", "furious", "hate", "hated", "idiot",
	"kill", "loser", "moron", "pathetic", "shut", "stupid", "terrible",
	"ugly", "worthless",
}

// patternSources catch common obfuscations such as "f*ck" spelled with
// separators between letters. Each matches at a word start and allows a short
// inflection suffix.
var patternSources = []string{
	`f[*\-_]?u[*\-_]?c[*\-_]?k`,
	`s[*\-_]?h[*\-_]?i[*\-_]?t`,
	`b[*\-_]?i[*\-_]?t[*\-_]?c[*\-_]?h`,
	`d[*\-_]?a[*\-_]?m[*\-_]?n`,
	`a[*\-_]?s[*\-_]?s`,
	`h[*\-_]?e[*\-_]?l[*\-_]?l`,
}

const patternSuffix = `(?:s|es|ed|er|ers|ing|in|y)?`

// continuousScripts lists languages written without spaces between words;
// their terms are matched as substrings instead of whole tokens.
var continuousScripts = map[string]bool{
	"zh": true,
	"ja": true,
	"ko": true,
	"th": true,
}
