package engine

import "strings"

// Category 占位符分组
type Category string

const (
	CategorySeller   Category = "seller"
	CategoryBuyer    Category = "buyer"
	CategoryContract Category = "contract"
	CategoryProperty Category = "property"
	CategorySystem   Category = "system"
)

var categoryOrder = []Category{CategorySeller, CategoryBuyer, CategoryContract, CategoryProperty, CategorySystem}

// CatalogEntry 编辑器可插入的占位符
// 目录与模板的字段定义相互独立,目录中的 key 不保证在编译时有对应字段,
// 没有对应字段的占位符编译时替换为空串。
type CatalogEntry struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Category    Category `json:"category"`
	Description string   `json:"description,omitempty"`
	Example     string   `json:"example,omitempty"`
}

// Insert 返回插入到正文的文本
func (e CatalogEntry) Insert() string {
	return Token(e.Key)
}

// CatalogGroup 按分组聚合的目录
type CatalogGroup struct {
	Category Category       `json:"category"`
	Entries  []CatalogEntry `json:"entries"`
}

var catalog = []CatalogEntry{
	{Key: "seller_full_name", Label: "اسم البائع الكامل", Category: CategorySeller, Description: "الاسم الأول + اسم الأب + اللقب", Example: "محمد بن أحمد بن يطو"},
	{Key: "seller_first_name", Label: "الاسم الأول للبائع", Category: CategorySeller, Description: "الاسم الأول فقط", Example: "محمد"},
	{Key: "seller_last_name", Label: "لقب البائع", Category: CategorySeller, Description: "اللقب العائلي", Example: "بن يطو"},
	{Key: "seller_father_name", Label: "اسم أب البائع", Category: CategorySeller, Description: "اسم الأب", Example: "أحمد"},
	{Key: "seller_mother_name", Label: "اسم أم البائع", Category: CategorySeller, Description: "اسم الأم", Example: "فاطمة"},
	{Key: "seller_nationality", Label: "جنسية البائع", Category: CategorySeller, Description: "الجنسية", Example: "جزائري"},
	{Key: "seller_profession", Label: "مهنة البائع", Category: CategorySeller, Description: "المهنة", Example: "موظف"},
	{Key: "seller_birth_date", Label: "تاريخ ميلاد البائع", Category: CategorySeller, Description: "تاريخ الميلاد", Example: "07/01/1988"},
	{Key: "seller_birth_place", Label: "مكان ميلاد البائع", Category: CategorySeller, Description: "مكان الميلاد", Example: "المسيلة"},
	{Key: "seller_birth_certificate", Label: "رقم شهادة ميلاد البائع", Category: CategorySeller, Description: "رقم شهادة الميلاد", Example: "00129"},
	{Key: "seller_national_id", Label: "رقم بطاقة التعريف للبائع", Category: CategorySeller, Description: "رقم بطاقة التعريف الوطنية", Example: "201766707"},
	{Key: "seller_address", Label: "عنوان البائع", Category: CategorySeller, Description: "العنوان الكامل", Example: "حي النهضة 300 مسكن بالمسيلة"},
	{Key: "seller_phone", Label: "هاتف البائع", Category: CategorySeller, Description: "رقم الهاتف", Example: "0555123456"},

	{Key: "buyer_full_name", Label: "اسم المشتري الكامل", Category: CategoryBuyer, Description: "الاسم الأول + اسم الأب + اللقب", Example: "فطيمة بنت يوسف بختي"},
	{Key: "buyer_first_name", Label: "الاسم الأول للمشتري", Category: CategoryBuyer, Description: "الاسم الأول فقط", Example: "فطيمة"},
	{Key: "buyer_last_name", Label: "لقب المشتري", Category: CategoryBuyer, Description: "اللقب العائلي", Example: "بختي"},
	{Key: "buyer_father_name", Label: "اسم أب المشتري", Category: CategoryBuyer, Description: "اسم الأب", Example: "يوسف"},
	{Key: "buyer_mother_name", Label: "اسم أم المشتري", Category: CategoryBuyer, Description: "اسم الأم", Example: "عائشة"},
	{Key: "buyer_nationality", Label: "جنسية المشتري", Category: CategoryBuyer, Description: "الجنسية", Example: "جزائري"},
	{Key: "buyer_profession", Label: "مهنة المشتري", Category: CategoryBuyer, Description: "المهنة", Example: "ربة بيت"},
	{Key: "buyer_birth_date", Label: "تاريخ ميلاد المشتري", Category: CategoryBuyer, Description: "تاريخ الميلاد", Example: "11/04/1960"},
	{Key: "buyer_birth_place", Label: "مكان ميلاد المشتري", Category: CategoryBuyer, Description: "مكان الميلاد", Example: "المطارفة"},
	{Key: "buyer_birth_certificate", Label: "رقم شهادة ميلاد المشتري", Category: CategoryBuyer, Description: "رقم شهادة الميلاد", Example: "00024"},
	{Key: "buyer_national_id", Label: "رقم بطاقة التعريف للمشتري", Category: CategoryBuyer, Description: "رقم بطاقة التعريف الوطنية", Example: "200849489"},
	{Key: "buyer_address", Label: "عنوان المشتري", Category: CategoryBuyer, Description: "العنوان الكامل", Example: "حي 322 مسكن بالمسيلة"},
	{Key: "buyer_phone", Label: "هاتف المشتري", Category: CategoryBuyer, Description: "رقم الهاتف", Example: "0555987654"},

	{Key: "contract_date", Label: "تاريخ العقد", Category: CategoryContract, Description: "تاريخ تحرير العقد", Example: "05/08/2021"},
	{Key: "contract_number", Label: "رقم العقد", Category: CategoryContract, Description: "رقم العقد في السجل", Example: "102/ع ب/21"},
	{Key: "index_number", Label: "رقم الفهرس", Category: CategoryContract, Description: "رقم الفهرس في السجل", Example: "102"},
	{Key: "deposit_number", Label: "رقم الإيداع", Category: CategoryContract, Description: "رقم إيداع العقد", Example: "248/60"},
	{Key: "drawing_number", Label: "رقم الرسم", Category: CategoryContract, Description: "رقم الرسم العقاري", Example: "143"},

	{Key: "property_number", Label: "رقم الملكية", Category: CategoryProperty, Description: "رقم مجموعة الملكية", Example: "029"},
	{Key: "section", Label: "القسم", Category: CategoryProperty, Description: "رقم القسم", Example: "237"},
	{Key: "plot_number", Label: "رقم القطعة", Category: CategoryProperty, Description: "رقم القطعة الأرضية", Example: "16/59"},
	{Key: "area", Label: "المساحة", Category: CategoryProperty, Description: "مساحة العقار", Example: "150.00"},
	{Key: "location", Label: "الموقع", Category: CategoryProperty, Description: "موقع العقار", Example: "سبع الغربي اشبيليا القديمة"},
	{Key: "price", Label: "الثمن", Category: CategoryProperty, Description: "ثمن البيع", Example: "750000.00"},
	{Key: "paid_amount", Label: "المبلغ المدفوع", Category: CategoryProperty, Description: "المبلغ المدفوع نقداً", Example: "600000.00"},
	{Key: "remaining_amount", Label: "المبلغ المتبقي", Category: CategoryProperty, Description: "المبلغ المتبقي", Example: "150000.00"},

	{Key: "office_name", Label: "اسم المكتب", Category: CategorySystem, Description: "اسم مكتب التوثيق", Example: "المسيلة"},
	{Key: "office_phone", Label: "هاتف المكتب", Category: CategorySystem, Description: "رقم هاتف المكتب", Example: "0660650013"},
	{Key: "notary_name", Label: "اسم الموثق", Category: CategorySystem, Description: "اسم الموثق", Example: "عبد الكريم بتغة"},
	{Key: "notary_address", Label: "عنوان الموثق", Category: CategorySystem, Description: "عنوان مكتب الموثق", Example: "العقيد عميروش (جنان بوديعة) طريق البرج بالمسيلة"},
	{Key: "today_date", Label: "تاريخ اليوم", Category: CategorySystem, Description: "تاريخ اليوم الحالي", Example: "14/02/2026"},
}

// Catalog 返回完整目录的副本
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogByCategory 按分组返回目录,分组顺序固定
func CatalogByCategory() []CatalogGroup {
	groups := make([]CatalogGroup, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		group := CatalogGroup{Category: c}
		for _, e := range catalog {
			if e.Category == c {
				group.Entries = append(group.Entries, e)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// LookupCatalog 按 key 查找目录项
func LookupCatalog(key string) (CatalogEntry, bool) {
	for _, e := range catalog {
		if e.Key == key {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// SearchCatalog 编辑器输入 {{ 之后的联想查询,按 key 或标签包含匹配
func SearchCatalog(query string) []CatalogEntry {
	query = strings.TrimSpace(strings.TrimPrefix(query, openDelim))
	if query == "" {
		return Catalog()
	}
	lower := strings.ToLower(query)
	var out []CatalogEntry
	for _, e := range catalog {
		if strings.Contains(e.Key, lower) || strings.Contains(e.Label, query) {
			out = append(out, e)
		}
	}
	return out
}
