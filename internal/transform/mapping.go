package transform

// fieldMapping maps PSE API field names to the technical column names used in
// the stored documents. The technical names are the legacy underscored
// headers of the published PK5L report, kept verbatim so existing collections
// and dashboards stay readable.
var fieldMapping = map[string]string{
	"grid_demand_fcst":                  "Prognozowane_zapotrzebowanie_sieci",
	"req_pow_res":                       "Wymagana_rezerwa_mocy_OSP",
	"surplus_cap_avail_tso":             "Nadwyzka_mocy_dostepna_dla_OSP_(7)_+_(9)_-_[(3)_-_(12)]_-_(13)",
	"gen_surplus_avail_tso_above":       "Nadwyzka_mocy_dostepna_dla_OSP_ponad_wymagana_rezerwe_moc_(5)_-_(4)",
	"avail_cap_gen_units_stor_prov":     "Moc_dyspozycyjna_JW_i_magazynow_energii_swiadczacych_uslugi_bilansujace_w_ramach_RB",
	"avail_cap_gen_units_stor_prov_tso": "Moc_dyspozycyjna_JW_i_magazynow_energii_swiadczacych_uslugi_bilansujace_w_ramach_RB_dostepna_dla_OSP",
	"fcst_gen_unit_stor_prov":           "Przewidywana_generacja_JW_i_magazynow_energii_swiadczacych_uslugi_bilansujace_w_ramach_RB_(3)_-_(9)",
	"fcst_gen_unit_stor_non_prov":       "Prognozowana_generacja_JW_i_magazynow_energii_nie_swiadczacych_uslug_bilansujacych_w_ramach_RB",
	"fcst_wi_tot_gen":                   "Prognozowana_sumaryczna_generacja_zrodel_wiatrowych",
	"fcst_pv_tot_gen":                   "Prognozowana_sumaryczna_generacja_zrodel_fotowoltaicznych",
	"planned_exchange":                  "Planowane_saldo_wymiany_miedzysystemowej",
	"fcst_unav_energy":                  "Prognozowana_wielkosc_niedyspozycyjnosci_wynikajaca_z_ograniczen_sieciowych_wystepujacych_w_sieci_przesylowej_oraz_sieci_dystrybucyjnej_w_zakresie_dostarczania_energii_elektrycznej",
	"sum_unav_oper_cond":                "Prognozowana_wielkosc_niedyspozycyjnosci_wynikajacych_z_warunkow_eksploatacyjnych_JW_swiadczacych_uslugi_bilansujace_w_ramach_RB",
	"pred_gen_res_not_cov":              "Przewidywana_generacja_zasobow_wytworczych_nieobjetych_obowiazkami_mocowymi",
	"cap_market_obligation":             "Obowiazki_mocowe_wszystkich_jednostek_rynku_mocy",
}

// TechnicalName returns the stored column name for an API field, if mapped.
func TechnicalName(apiField string) (string, bool) {
	name, ok := fieldMapping[apiField]
	return name, ok
}

// APIFields returns all mapped API field names, in no particular order.
func APIFields() []string {
	fields := make([]string, 0, len(fieldMapping))
	for f := range fieldMapping {
		fields = append(fields, f)
	}
	return fields
}
