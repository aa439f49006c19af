// Package catalog holds the static waste category metadata shown alongside
// classification results. The predictor's class labels are the keys.
package catalog

// Category is display metadata for one waste class.
type Category struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Color       string   `json:"color"`
	Description string   `json:"description"`
	Handling    []string `json:"handling"`
}

// Keys lists the classes the predictor can emit, in catalog order.
var Keys = []string{
	"battery", "biological", "bottle", "cardboard", "clothes",
	"glass", "paper", "plastic", "shoes", "trash",
}

var categories = map[string]Category{
	"battery": {
		Key:         "battery",
		Title:       "Baterai",
		Color:       "#dc2626",
		Description: "Limbah berbahaya yang mengandung logam berat",
		Handling: []string{
			"Jangan buang ke tempat sampah biasa",
			"Kumpulkan di tempat khusus limbah B3",
			"Serahkan ke bank sampah atau fasilitas daur ulang elektronik",
			"Jauhkan dari jangkauan anak-anak",
		},
	},
	"biological": {
		Key:         "biological",
		Title:       "Sampah Organik",
		Color:       "#16a34a",
		Description: "Sampah yang dapat terurai secara alami",
		Handling: []string{
			"Pisahkan dari sampah lainnya",
			"Buat kompos di rumah",
			"Dapat dijadikan pupuk organik",
			"Proses dalam waktu 2-3 minggu",
		},
	},
	"bottle": {
		Key:         "bottle",
		Title:       "Botol Plastik",
		Color:       "#2563eb",
		Description: "Dapat didaur ulang menjadi produk baru",
		Handling: []string{
			"Cuci bersih sebelum dibuang",
			"Lepaskan tutup dan label",
			"Kumpulkan di bank sampah",
			"Dapat dijual untuk tambahan income",
		},
	},
	"cardboard": {
		Key:         "cardboard",
		Title:       "Kardus",
		Color:       "#d97706",
		Description: "Material yang mudah didaur ulang",
		Handling: []string{
			"Ratakan dan lipat rapi",
			"Pisahkan dari isolasi dan lem",
			"Jual ke pengepul atau bank sampah",
			"Simpan di tempat kering untuk mencegah lembab",
		},
	},
	"clothes": {
		Key:         "clothes",
		Title:       "Pakaian",
		Color:       "#9333ea",
		Description: "Sampah tekstil yang bisa digunakan kembali",
		Handling: []string{
			"Sumbangkan jika masih layak pakai",
			"Gunakan kembali sebagai kain pel",
			"Jual ke pengrajin daur ulang tekstil",
			"Jangan dicampur dengan sampah basah",
		},
	},
	"glass": {
		Key:         "glass",
		Title:       "Kaca",
		Color:       "#0891b2",
		Description: "Dapat didaur ulang berkali-kali tanpa kehilangan kualitas",
		Handling: []string{
			"Pisahkan dari jenis sampah lain",
			"Bungkus sebelum dibuang agar tidak melukai",
			"Serahkan ke bank sampah atau pengepul kaca",
			"Jangan campur dengan keramik atau porselen",
		},
	},
	"paper": {
		Key:         "paper",
		Title:       "Kertas",
		Color:       "#ca8a04",
		Description: "Material ringan dan mudah didaur ulang",
		Handling: []string{
			"Jauhkan dari air agar tidak rusak",
			"Lipat rapi dan kumpulkan",
			"Gunakan kembali jika masih bisa dipakai",
			"Jual ke pengepul kertas",
		},
	},
	"plastic": {
		Key:         "plastic",
		Title:       "Plastik",
		Color:       "#db2777",
		Description: "Sampah yang sulit terurai, harus didaur ulang",
		Handling: []string{
			"Bersihkan dari sisa makanan atau cairan",
			"Pisahkan berdasarkan jenis plastik (kode daur ulang)",
			"Gunakan kembali jika memungkinkan",
			"Kumpulkan di dropbox daur ulang",
		},
	},
	"shoes": {
		Key:         "shoes",
		Title:       "Sepatu",
		Color:       "#ea580c",
		Description: "Sampah tekstil dan karet campuran",
		Handling: []string{
			"Sumbangkan jika masih bisa digunakan",
			"Kirim ke produsen yang menerima program daur ulang sepatu",
			"Jangan buang sembarangan",
			"Coba ubah jadi pot tanaman atau kerajinan",
		},
	},
	"trash": {
		Key:         "trash",
		Title:       "Sampah Umum",
		Color:       "#4b5563",
		Description: "Sampah yang tidak dapat diklasifikasikan",
		Handling: []string{
			"Gunakan kantong sampah tertutup",
			"Buang di tempat sampah akhir",
			"Kurangi produksi sampah ini sebisa mungkin",
			"Jangan mencampur dengan limbah B3 atau organik",
		},
	},
}

// Get returns the category for a predictor class label and whether the label
// is part of the catalog.
func Get(key string) (Category, bool) {
	category, ok := categories[key]
	return category, ok
}

// All returns the catalog in stable Keys order.
func All() []Category {
	all := make([]Category, 0, len(Keys))
	for _, key := range Keys {
		all = append(all, categories[key])
	}
	return all
}
