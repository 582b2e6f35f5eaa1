package naming

// Built-in brand table. Order matters: a product line must be listed before
// the brand it belongs to ("BILLA BIO" before "BILLA").
var defaultBrandRules = []BrandRule{
	// Retailer own labels
	{Pattern: `JA!?\s*NAT(?:Ü|UE|U)RLICH(?:\s|$)`, Brand: "Ja! Natürlich"},
	{Pattern: `BILLA\s+BIO(?:\s|$)`, Brand: "Billa Bio"},
	{Pattern: `BILLA\s+CORSO(?:\s|$)`, Brand: "Billa Corso"},
	{Pattern: `BILLA\s+IMMER\s+GUT(?:\s|$)`, Brand: "Billa Immer Gut"},
	{Pattern: `BILLA(?:\s|$)`, Brand: "Billa"},
	{Pattern: `CLEVER(?:\s|$)`, Brand: "Clever"},
	{Pattern: `SPAR\s+NATUR\s*PUR(?:\s|$)`, Brand: "Spar Natur*pur"},
	{Pattern: `SPAR\s+PREMIUM(?:\s|$)`, Brand: "Spar Premium"},
	{Pattern: `SPAR\s+VEGGIE(?:\s|$)`, Brand: "Spar Veggie"},
	{Pattern: `S-BUDGET(?:\s|$)`, Brand: "S-Budget"},
	{Pattern: `SPAR(?:\s|$)`, Brand: "Spar"},
	{Pattern: `ZURÜCK\s+ZUM\s+URSPRUNG(?:\s|$)`, Brand: "Zurück zum Ursprung"},
	{Pattern: `MILSANI(?:\s|$)`, Brand: "Milsani"},

	// Dairy
	{Pattern: `N(?:Ö|OE|O)M\s+FASTEN(?:\s|$)`, Brand: "NÖM Fasten"},
	{Pattern: `N(?:Ö|OE|O)M(?:\s|$)`, Brand: "NÖM"},
	{Pattern: `BERGLAND(?:\s|$)`, Brand: "Bergland"},
	{Pattern: `SCHÄRDINGER(?:\s|$)`, Brand: "Schärdinger"},
	{Pattern: `TIROLER\s+MILCH(?:\s|$)`, Brand: "Tirol Milch"},
	{Pattern: `DANONE\s+ACTIVIA(?:\s|$)`, Brand: "Activia"},
	{Pattern: `DANONE(?:\s|$)`, Brand: "Danone"},
	{Pattern: `ALPRO(?:\s|$)`, Brand: "Alpro"},
	{Pattern: `EHRMANN(?:\s|$)`, Brand: "Ehrmann"},

	// Drinks
	{Pattern: `RAUCH\s+HAPPY\s+DAY(?:\s|$)`, Brand: "Happy Day"},
	{Pattern: `HAPPY\s+DAY(?:\s|$)`, Brand: "Happy Day"},
	{Pattern: `RAUCH(?:\s|$)`, Brand: "Rauch"},
	{Pattern: `V(?:Ö|OE|O)SLAUER(?:\s|$)`, Brand: "Vöslauer"},
	{Pattern: `R(?:Ö|OE|O)MERQUELLE(?:\s|$)`, Brand: "Römerquelle"},
	{Pattern: `RED\s*BULL(?:\s|$)`, Brand: "Red Bull"},
	{Pattern: `COCA[\s-]*COLA\s+ZERO(?:\s|$)`, Brand: "Coca-Cola Zero"},
	{Pattern: `COCA[\s-]*COLA(?:\s|$)`, Brand: "Coca-Cola"},
	{Pattern: `OTTAKRINGER(?:\s|$)`, Brand: "Ottakringer"},
	{Pattern: `G(?:Ö|OE|O)SSER(?:\s|$)`, Brand: "Gösser"},
	{Pattern: `STIEGL(?:\s|$)`, Brand: "Stiegl"},
	{Pattern: `JULIUS\s+MEINL(?:\s|$)`, Brand: "Julius Meinl"},
	{Pattern: `TCHIBO(?:\s|$)`, Brand: "Tchibo"},

	// Pantry
	{Pattern: `BARILLA(?:\s|$)`, Brand: "Barilla"},
	{Pattern: `KNORR(?:\s|$)`, Brand: "Knorr"},
	{Pattern: `MAGGI(?:\s|$)`, Brand: "Maggi"},
	{Pattern: `IGLO(?:\s|$)`, Brand: "Iglo"},
	{Pattern: `DA\s+KOMM\s+ICH\s+HER(?:\s|$)`, Brand: "Da komm ich her!"},
	{Pattern: `SPITZ(?:\s|$)`, Brand: "Spitz"},
	{Pattern: `DARBO(?:\s|$)`, Brand: "Darbo"},

	// Sweets and snacks
	{Pattern: `MANNER(?:\s|$)`, Brand: "Manner"},
	{Pattern: `MILKA(?:\s|$)`, Brand: "Milka"},
	{Pattern: `LINDT(?:\s|$)`, Brand: "Lindt"},
	{Pattern: `HARIBO(?:\s|$)`, Brand: "Haribo"},
	{Pattern: `KELLY'?S(?:\s|$)`, Brand: "Kelly's"},
	{Pattern: `SOLETTI(?:\s|$)`, Brand: "Soletti"},
	{Pattern: `NESTL(?:É|E)(?:\s|$)`, Brand: "Nestlé"},

	// Household
	{Pattern: `ARIEL(?:\s|$)`, Brand: "Ariel"},
	{Pattern: `PERSIL(?:\s|$)`, Brand: "Persil"},
	{Pattern: `FAIRY(?:\s|$)`, Brand: "Fairy"},
	{Pattern: `ZEWA(?:\s|$)`, Brand: "Zewa"},
}

// Fresh produce and herbs sold without a brand
var defaultGenericPrefixes = []string{
	"Ananas",
	"Äpfel",
	"Apfel",
	"Avocado",
	"Bananen",
	"Basilikum",
	"Birnen",
	"Brokkoli",
	"Champignon",
	"Dille",
	"Erdäpfel",
	"Fenchel",
	"Gurke",
	"Heidelbeeren",
	"Ingwer",
	"Jungzwiebel",
	"Karfiol",
	"Karotten",
	"Kartoffel",
	"Kiwi",
	"Knoblauch",
	"Kohlrabi",
	"Kräuter",
	"Lauch",
	"Limette",
	"Mandarinen",
	"Mango",
	"Melanzani",
	"Minze",
	"Orangen",
	"Paprika",
	"Paradeiser",
	"Petersilie",
	"Radieschen",
	"Rosmarin",
	"Rucola",
	"Salat",
	"Schnittlauch",
	"Spinat",
	"Thymian",
	"Tomaten",
	"Trauben",
	"Zitronen",
	"Zucchini",
	"Zwiebel",
}
