package order

import "strings"

// Products offered on the first step.
const (
	ProductComputer   = "Компьютер в сборе"
	ProductLaptop     = "Ноутбук"
	ProductMonitor    = "Монитор"
	ProductSystemUnit = "Системный блок"
	ProductPeripheral = "Периферия (мышь, клавиатура, наушники)"
	ProductCustom     = "Свой вариант"
)

// NoDescription is returned for products without a standard kit.
const NoDescription = "Без описания"

var systemUnitParts = []string{
	"Корпус Aerocool AERO-300 черный",
	"Блок питания Aerocool KCAS 500W [KCAS-500W]",
	"Оперативная память Crucial [CT8G4DFS824A] 8 ГБ (Прогерам 16)",
	"120 ГБ SSD - накопитель WD Green [WDS120G2G0A]",
	"Материнская плата MSI H310M PRO - M2",
	"Процессор Intel Core i3-8100 BOX Код товара: 1153709",
}

const monitorModel = `23.8"" Монитор HP 24es [T3M78AA]`

var equipment = map[string]string{
	ProductComputer: "Компьютер в сборе сосоит из\n" +
		strings.Join(systemUnitParts, "\n") + "\n" + monitorModel,
	ProductLaptop: strings.Join([]string{
		"Стандартный ноутбук Оперативка <8 GB DDR4",
		"IPS Матрица, матовый экран",
		"SSD 250Gb",
		"Процессор не ниже 7 поколения(KabyLake)",
	}, "\n"),
	ProductMonitor:    `Стандартный монитор "` + monitorModel,
	ProductSystemUnit: "Стандартный системный блок\n" + strings.Join(systemUnitParts, "\n"),
}

// StandardEquipment returns the canned kit description for product.
func StandardEquipment(product string) string {
	if text, ok := equipment[product]; ok {
		return text
	}
	return NoDescription
}

// HasStandardEquipment reports whether product comes with a default kit.
func HasStandardEquipment(product string) bool {
	_, ok := equipment[product]
	return ok
}
